package main

import "github.com/ValentinKolb/redkv/cmd"

func main() {
	cmd.Execute()
}
