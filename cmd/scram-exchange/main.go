// scram-exchange drives one SCRAM authentication exchange by hand, for
// debugging a server. The password is read from the terminal without echo;
// server messages are pasted one per line on stdin and each outbound client
// message is printed.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/term"

	"github.com/natter-xmpp/natter/sasl"
	_ "github.com/natter-xmpp/natter/sasl/scram"
)

func main() {
	mech := flag.String("mech", "SCRAM-SHA-256", "SASL mechanism name")
	user := flag.String("user", "", "authentication username")
	authzid := flag.String("authzid", "", "authorization identity")
	flag.Parse()

	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	fmt.Print("Password: ")
	pass, err := term.ReadPassword(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println()

	client, err := sasl.New(*mech)
	if err != nil {
		log.Fatal(err)
	}

	first, err := client.Start(sasl.Properties{
		Username: *user,
		Password: string(pass),
		Authzid:  *authzid,
	})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("C: %s\n", first)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		resp, err := client.Challenge(scanner.Bytes())
		if err != nil {
			var failure *sasl.Failure
			if errors.As(err, &failure) {
				log.Fatalf("authentication failed: %s", failure.Reason)
			}
			log.Fatal(err)
		}
		if resp != nil {
			fmt.Printf("C: %s\n", resp)
			continue
		}

		success, err := client.Finish(nil)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("authenticated as %s\n", success.Username)
		return
	}
	if err := scanner.Err(); err != nil {
		log.Fatal(err)
	}
	log.Fatal("server closed the exchange before it completed")
}
