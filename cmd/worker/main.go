package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker sync <connector>|all | clash <project_public_id> | sched")
	}

	switch os.Args[1] {
	case "sync":
		RunSync(os.Args[2:])
	case "clash":
		RunClash(os.Args[2:])
	case "sched":
		RunSched()
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
