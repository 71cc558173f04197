// Package main is the entry point for the campus-rag service.
package main

import (
	_ "go.uber.org/automaxprocs/maxprocs"

	"github.com/kart-io/campus-rag/cmd/campus-rag/app"
)

func main() {
	app.NewApp().Run()
}
