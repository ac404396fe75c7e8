package main

import "github.com/okian/shangan/internal/simcli"

func main() {
	simcli.Execute()
}
