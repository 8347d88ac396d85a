package main

import "myPriceLab/internal/cli"

func main() {
	cli.Execute()
}
