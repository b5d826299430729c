// Command mdbrecover recovers Miranda IM profile databases into JSON.
package main

import "os"

func main() {
	os.Exit(execute())
}
