package main

import "github.com/soocke/pixel-recorder-go/app"

func main() {
	app.Execute()
}
