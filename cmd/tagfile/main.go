/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/ssargent/tagfile/cmd/tagfile/cmd"

func main() {
	cmd.Execute()
}
