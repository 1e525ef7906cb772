package main

import "github.com/suman-15/whisper-asr-multilang/cmd"

func main() {
	cmd.Execute()
}
