// Copyright (c) 2012-2014 Jeremy Latt
// Copyright (c) 2014-2015 Edmund Huber
// Copyright (c) 2016-2017 Daniel Oaks <daniel@danieloaks.net>
// Copyright (c) 2026 np1th-irc contributors
// released under the MIT license

package main

import (
	"bufio"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/term"

	"github.com/docopt/docopt-go"
	"github.com/teslaNova/np1th-irc/irc"
	"github.com/teslaNova/np1th-irc/irc/mkcerts"
)

// set via linker flags, either by make or by goreleaser:
var commit = ""  // git hash
var version = "" // tagged version

// get a password from stdin from the user
func getPasswordFromTerminal() string {
	bytePassword, err := term.ReadPassword(int(syscall.Stdin))
	if err != nil {
		log.Fatal("Error reading password:", err.Error())
	}
	return string(bytePassword)
}

func readPassword() string {
	if term.IsTerminal(int(syscall.Stdin)) {
		fmt.Print("Server Password: ")
		password := getPasswordFromTerminal()
		fmt.Print("\n")
		return password
	}
	reader := bufio.NewReader(os.Stdin)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}

func fileDoesNotExist(file string) bool {
	if _, err := os.Stat(file); os.IsNotExist(err) {
		return true
	}
	return false
}

// implements the `np1th mkcerts` command
func doMkcerts(host, certFile, keyFile string, quiet bool) {
	if !(fileDoesNotExist(certFile) && fileDoesNotExist(keyFile)) {
		log.Fatalf("Preexisting TLS cert and/or key files: %s %s", certFile, keyFile)
	}
	if !quiet {
		log.Printf("making self-signed certificate for %s\n", host)
	}
	cert, key, err := mkcerts.CreateCertBytes("np1th-irc", host, 365*24*time.Hour)
	if err != nil {
		log.Fatal("  Could not create certificate:", err.Error())
	}
	if err = os.WriteFile(certFile, cert, 0644); err != nil {
		log.Fatal(err)
	}
	if err = os.WriteFile(keyFile, key, 0600); err != nil {
		log.Fatal(err)
	}
	if !quiet {
		log.Printf("  Certificate created at %s : %s\n", certFile, keyFile)
	}
}

// implements the `np1th checkconfig` command
func doCheckConfig(config *irc.Config, quiet bool) {
	candidates, err := irc.ApplyPortPolicies(config.Server.Ports, config.Server.Policies)
	if err != nil {
		log.Fatal(err)
	}
	if len(candidates) == 0 {
		log.Fatal("No ports are left after applying the port policies")
	}
	if quiet {
		return
	}
	ports := make([]string, len(candidates))
	for i, port := range candidates {
		ports[i] = port.String()
	}
	fmt.Printf("%s as %s, trying ports %s\n", config.Server.Host, config.Identity.Origin(), strings.Join(ports, ", "))
}

func printMessage(msg *irc.Message) {
	line, err := msg.Command.Line()
	if err != nil {
		// replies have no wire form of their own
		line = msg.Command.Verb()
		if motdLine, ok := msg.Command.(irc.MotdLine); ok {
			line += " " + motdLine.Text
		}
	}
	if msg.Origin.IsConnection() {
		fmt.Println(line)
	} else {
		fmt.Printf("<%s> %s\n", msg.Origin, line)
	}
}

// implements the `np1th connect` command
func doConnect(config *irc.Config, raw, quiet bool) {
	logman, err := config.NewLogger()
	if err != nil {
		log.Fatal("Logger did not load successfully:", err.Error())
	}
	if !quiet {
		logman.Info("client", fmt.Sprintf("%s connecting to %s", irc.Ver, config.Server.Host))
	}

	client, err := irc.Connect(config, logman)
	if err != nil {
		log.Fatal("Could not register: ", err.Error())
	}

	if motd, ok := client.MOTD(); ok {
		if !raw {
			motd = client.PlainMOTD()
		}
		fmt.Println(motd)
	} else if !quiet {
		fmt.Println("(no MOTD)")
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)

	for msg, err := range client.Messages() {
		if err != nil {
			logman.Error("client", "Connection lost", err.Error())
			os.Exit(1)
		}
		select {
		case <-signals:
			if !quiet {
				logman.Info("client", "Disconnecting")
			}
			client.Disconnect("np1th-irc")
			return
		default:
		}
		if msg == nil {
			continue
		}
		if ping, ok := msg.Command.(irc.Ping); ok {
			client.Send(irc.Pong{Server1: ping.Server1, Server2: ping.Server2})
		}
		printMessage(msg)
	}
}

func main() {
	irc.SetVersionString(version, commit)
	usage := `np1th.
Usage:
	np1th connect [--conf <filename>] [--password] [--raw] [--quiet]
	np1th checkconfig [--conf <filename>] [--quiet]
	np1th mkcerts <host> [--cert <filename>] [--key <filename>] [--quiet]
	np1th -h | --help
	np1th --version
Options:
	--conf <filename>  Configuration file to use [default: np1th.yaml].
	--password         Prompt for the server password.
	--raw              Print the MOTD with its formatting codes.
	--cert <filename>  Certificate file to write [default: tls.crt].
	--key <filename>   Private key file to write [default: tls.key].
	--quiet            Don't show startup/shutdown lines.
	-h --help          Show this screen.
	--version          Show version.`

	arguments, _ := docopt.ParseArgs(usage, nil, irc.Ver)
	quiet := arguments["--quiet"].(bool)

	// mkcerts doesn't need a config file
	if arguments["mkcerts"].(bool) {
		doMkcerts(arguments["<host>"].(string), arguments["--cert"].(string), arguments["--key"].(string), quiet)
		return
	}

	configfile := arguments["--conf"].(string)
	config, err := irc.LoadConfig(configfile)
	if err != nil {
		log.Fatal("Config file did not load successfully: ", err.Error())
	}

	if arguments["checkconfig"].(bool) {
		doCheckConfig(config, quiet)
	} else if arguments["connect"].(bool) {
		if arguments["--password"].(bool) {
			config.Server.Password = readPassword()
		}
		doConnect(config, arguments["--raw"].(bool), quiet)
	}
}
