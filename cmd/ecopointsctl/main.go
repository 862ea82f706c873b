package main

import (
	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/ecopoints/internal/ctl"
)

func main() {
	_ = godotenv.Load()
	ctl.Execute()
}
