package main

import "github.com/chainforge/evmdeploy/cmd"

func main() {
	cmd.Execute()
}
