package main

import (
	poolchat "poolchat/app"
)

func main() {
	app := poolchat.New(nil, nil)
	app.Start()
}
