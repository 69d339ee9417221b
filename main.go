package main

import "github.com/energiq-cloud/ms-go-transaction-payments/cmd"

func main() {
	cmd.Execute()
}
