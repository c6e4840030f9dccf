package admin

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/gophauth/internal/flagx"
)

var adminFlags = []string{"-email", "-name", "-mfa", "-quick"}

// ParseOptions reads the bootstrap flags from args, ignoring server
// configuration flags that share the same argv.
//
//	-email string   account email
//	-name string    display name
//	-mfa            enable MFA for the account
//	-quick          create the default admin without prompts
func ParseOptions(args []string) (Options, error) {
	var opts Options

	fs := flag.NewFlagSet("admin", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.Email, "email", "", "account email")
	fs.StringVar(&opts.Name, "name", "", "display name")
	fs.BoolVar(&opts.EnableMFA, "mfa", false, "enable MFA")
	fs.BoolVar(&opts.Quick, "quick", false, "create the default admin without prompts")

	if err := fs.Parse(flagx.FilterArgs(args, adminFlags)); err != nil {
		return Options{}, err
	}
	return opts, nil
}
