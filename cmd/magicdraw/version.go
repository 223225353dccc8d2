package main

import (
	"fmt"
	"os"
)

type versionCmd struct{ r *root }

func (v *versionCmd) Run() error {
	fmt.Fprintf(os.Stdout, "%s version %s", v.r.program, version)
	if commit != "" {
		fmt.Fprintf(os.Stdout, " (%s", commit)
		if date != "" {
			fmt.Fprintf(os.Stdout, ", %s", date)
		}
		fmt.Fprint(os.Stdout, ")")
	}
	fmt.Fprintln(os.Stdout)
	return nil
}
