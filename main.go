package main

import "github.com/dnitsch/aws-sso-portal/cmd"

func main() {
	cmd.Execute()
}
