// Command coldmailer manages an outreach contact list and sends templated
// emails within configured rate limits.
package main

import (
	"fmt"
	"os"
)

const usage = `Usage: coldmailer <command> [flags]

Commands:
  init        Create data directories, default templates and sample contacts
  add         Add a contact
  list        List contacts
  send-all    Send to every pending contact
  send-to     Send to one contact by email address
  preview     Render a message without sending it
  status      Show contact and rate limit statistics
  history     Show the send log
  templates   List available templates
  test-smtp   Verify SMTP connectivity and credentials
  convert     Convert the contact store between CSV and JSON

Run 'coldmailer <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "init":
		err = runInit(args)
	case "add":
		err = runAdd(args)
	case "list":
		err = runList(args)
	case "send-all":
		err = runSendAll(args)
	case "send-to":
		err = runSendTo(args)
	case "preview":
		err = runPreview(args)
	case "status":
		err = runStatus(args)
	case "history":
		err = runHistory(args)
	case "templates":
		err = runTemplates(args)
	case "test-smtp":
		err = runTestSMTP(args)
	case "convert":
		err = runConvert(args)
	case "-h", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
