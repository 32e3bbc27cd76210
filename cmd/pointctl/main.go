// Command pointctl imports, merges and exports map point files from the shell.
package main

func main() {
	Execute()
}
