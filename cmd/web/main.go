package main

import "shikkha_backend/internal/app"

func main() {
	app.Run()
}
