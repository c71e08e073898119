package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"golang.org/x/term"

	"github.com/trezcool/ratiba/core"
	"github.com/trezcool/ratiba/core/schedule"
	"github.com/trezcool/ratiba/core/user"
	"github.com/trezcool/ratiba/storage/database"
)

var (
	readPasswordFunc = term.ReadPassword // mockable
	gooseRunFunc     = database.Migrate  // mockable

	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("migrations need a postgres database")
)

type commandLine struct {
	conf       *core.Config
	db         *sqlx.DB // nil with the memory engine
	usrRepo    user.Repository
	schedSvc   schedule.Service
	validate   *validator.Validate
	translator ut.Translator
	out        io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -username USERNAME -email EMAIL [-name NAME] [-role admin|instructor] - create or update a user")
	fmt.Fprintln(cli.out, "  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS] - run goose COMMAND (up, down, status, ...) on the database")
	fmt.Fprintln(cli.out, "  import -file FILE.yaml - create the schedules listed in FILE")
	fmt.Fprintln(cli.out, "  export [-file FILE.yaml] - write all schedules to FILE (stdout by default)")
	fmt.Fprintln(cli.out, "  grid [-day DAY] [-room ROOM] [-instructor NAME] - print the timetable grid")
}

// readPassword prompts for a password on stdin.
func (cli *commandLine) readPassword(fs *flag.FlagSet) (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		fs.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserUname := addUserCmd.String("username", "", "The user's username.")
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's full name.")
	addUserRole := addUserCmd.String("role", "admin", "admin or instructor.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ContinueOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	importCmd := flag.NewFlagSet("import", flag.ContinueOnError)
	importFile := importCmd.String("file", "", "YAML file listing the schedules to create.")

	exportCmd := flag.NewFlagSet("export", flag.ContinueOnError)
	exportFile := exportCmd.String("file", "", "Destination YAML file; stdout when empty.")

	gridCmd := flag.NewFlagSet("grid", flag.ContinueOnError)
	gridDay := gridCmd.String("day", "", "Only show this day (e.g. monday, Mon/Wed).")
	gridRoom := gridCmd.String("room", "", "Only show classes in this room.")
	gridInstructor := gridCmd.String("instructor", "", "Only show classes taught by this instructor.")

	for _, fs := range []*flag.FlagSet{addUserCmd, resetPasswordCmd, importCmd, exportCmd, gridCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *addUserUname == "" && *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(addUserCmd)
		if err != nil {
			return err
		}
		return cli.addUser(*addUserName, *addUserUname, *addUserEmail, pwd, *addUserRole)

	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.readPassword(resetPasswordCmd)
		if err != nil {
			return err
		}
		return cli.resetPassword(*resetPasswordUname, pwd)

	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])

	case "import":
		if err := importCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		if *importFile == "" {
			importCmd.Usage()
			return errHelp
		}
		return cli.importSchedules(*importFile)

	case "export":
		if err := exportCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.exportSchedules(*exportFile)

	case "grid":
		if err := gridCmd.Parse(args[2:]); err != nil {
			return errHelp
		}
		return cli.printGrid(schedule.QueryFilter{Day: *gridDay, Room: *gridRoom, Instructor: *gridInstructor})

	default:
		cli.printUsage()
		return errHelp
	}
}
