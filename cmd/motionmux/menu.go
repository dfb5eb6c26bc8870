package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"motionmux/internal/pairing"
)

// runMenu loops until the user proceeds (true) or leaves (false). End of
// input counts as leaving.
func runMenu(in io.Reader, out io.Writer, c pairing.Classification) (bool, error) {
	reader := bufio.NewReader(in)
	for {
		fmt.Fprintln(out, "\nOptions:")
		fmt.Fprintln(out, "  1) Proceed with migration (copy all, mux pairs)")
		fmt.Fprintln(out, "  2) List detailed file categories")
		fmt.Fprintln(out, "  3) Exit")
		fmt.Fprint(out, "Choose an option [1/2/3]: ")

		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, fmt.Errorf("read choice: %w", err)
		}
		choice := strings.ToLower(strings.TrimSpace(line))
		switch choice {
		case "1":
			return true, nil
		case "2":
			printDetails(out, c)
		case "3", "q", "quit", "exit":
			return false, nil
		default:
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out)
				return false, nil
			}
			fmt.Fprintln(out, "Invalid choice. Please enter 1, 2, or 3.")
		}
		if errors.Is(err, io.EOF) {
			return false, nil
		}
	}
}
