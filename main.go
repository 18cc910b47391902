package main

import "github.com/audioscribe/transcriber-api/cmd"

// @title           Transcriber API
// @version         1.0.0
// @description     Resumable segmented audio transcription service
// @contact.name    API Support
// @contact.url     https://github.com/audioscribe/transcriber-api
// @host            localhost:8080
// @BasePath        /
// @schemes         http https
func main() {
	cmd.Execute()
}
