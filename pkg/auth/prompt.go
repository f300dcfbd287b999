package auth

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"
)

// PromptCredentials interactively collects a script-app login from the
// terminal. Existing values act as defaults and are kept when the user
// answers with an empty line. Secrets are read without echo whenever
// stdin is a real terminal.
func PromptCredentials(defaults *Credentials) (*Credentials, error) {
	reader := bufio.NewReader(os.Stdin)
	creds := &Credentials{}
	if defaults != nil {
		*creds = *defaults
	}

	var err error
	if creds.ClientID, err = promptVisible(reader, "Client ID", creds.ClientID); err != nil {
		return nil, err
	}
	if creds.ClientSecret, err = promptSecret(reader, "Client secret", creds.ClientSecret); err != nil {
		return nil, err
	}
	if creds.Username, err = promptVisible(reader, "Reddit username", creds.Username); err != nil {
		return nil, err
	}
	if creds.Password, err = promptSecret(reader, "Reddit password", creds.Password); err != nil {
		return nil, err
	}

	if !creds.Complete() {
		return nil, ErrInvalidCredentials
	}
	return creds, nil
}

func promptVisible(reader *bufio.Reader, label, current string) (string, error) {
	if current != "" {
		fmt.Printf("%s [%s]: ", label, current)
	} else {
		fmt.Printf("%s: ", label)
	}

	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}

func promptSecret(reader *bufio.Reader, label, current string) (string, error) {
	if current != "" {
		fmt.Printf("%s [unchanged]: ", label)
	} else {
		fmt.Printf("%s: ", label)
	}

	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		raw, err := term.ReadPassword(fd)
		fmt.Println()
		if err != nil {
			return "", err
		}
		value := strings.TrimSpace(string(raw))
		if value == "" {
			return current, nil
		}
		return value, nil
	}

	// Piped input: fall back to a plain line read
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return current, nil
	}
	return line, nil
}
