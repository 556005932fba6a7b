package main

import (
	"log"

	"github.com/boypt/folderwatch/server"
	"github.com/jpillora/opts"
)

var VERSION = "0.0.0-src" //set with ldflags

func main() {
	s := server.Server{
		Title:      "Folder Watch",
		Port:       3000,
		ConfigPath: "folderwatch.yaml",
	}

	o := opts.New(&s)
	o.Version(VERSION)
	o.PkgRepo()
	o.SetLineWidth(96)
	o.Parse()

	if err := s.Run(VERSION); err != nil {
		log.Fatal(err)
	}
}
