package main

import "github.com/pesio-ai/be-gl-eboekhouden/internal/cli"

func main() {
	cli.Execute()
}
