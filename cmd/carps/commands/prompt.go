package commands

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

const greeting = `Welcome to CARPS, the C# automated rapid project setup!
This program asks for the name of a new .NET project and creates it:
a solution with a console project inside, built and run once.
________________________________________________________________________
`

// promptName greets the user and reads the project name from the input.
// The name is returned as typed, validation is up to the caller.
func promptName(in io.Reader, out io.Writer) (string, error) {
	if in == nil {
		return "", fmt.Errorf("project name is required and there is no input to ask for it")
	}

	fmt.Fprint(out, greeting+"\n")
	fmt.Fprint(out, "Enter the name of the project: ")

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", fmt.Errorf("could not read project name: %w", err)
	}

	name := strings.TrimRight(line, "\r\n")
	fmt.Fprintf(out, "The project name is %s.\n\n", name)

	return name, nil
}
