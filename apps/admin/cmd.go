package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/darasa/core"
	"github.com/trezcool/darasa/core/schedule"
)

var (
	openFileFunc = func(name string) (io.ReadCloser, error) { return os.Open(name) } // mockable

	errHelp = errors.New("help provided")
)

type (
	academicYearCreator interface {
		CreateAcademicYear(ctx context.Context, ay schedule.AcademicYear, exec ...core.DBExecutor) (schedule.AcademicYear, error)
	}

	rosterImporter interface {
		ImportExcel(ctx context.Context, r io.Reader, classID string) (int, error)
	}

	commandLine struct {
		db          *sqlx.DB
		years       academicYearCreator
		scheduleSvc schedule.ServiceInterface
		rosters     rosterImporter
		out         io.Writer
	}
)

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS]                                           - run a goose migration command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  addyear -institution ID -name NAME -start YYYY-MM-DD -end YYYY-MM-DD - open the current academic year")
	fmt.Fprintln(cli.out, "  importroster -class ID -file ROSTER.xlsx                         - replace a class roster")
	fmt.Fprintln(cli.out, "  auditslots [-institution ID] [-teacher ID]                       - list overlapping active slots")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addYearCmd := flag.NewFlagSet("addyear", flag.ContinueOnError)
	addYearInst := addYearCmd.String("institution", "", "The institution ID.")
	addYearName := addYearCmd.String("name", "", "The academic year name, e.g. 2026-2027.")
	addYearStart := addYearCmd.String("start", "", "The first day of the academic year (YYYY-MM-DD).")
	addYearEnd := addYearCmd.String("end", "", "The last day of the academic year (YYYY-MM-DD).")

	importRosterCmd := flag.NewFlagSet("importroster", flag.ContinueOnError)
	importRosterClass := importRosterCmd.String("class", "", "The class ID.")
	importRosterFile := importRosterCmd.String("file", "", "The .xlsx roster: roll number, name and optional student ID columns.")

	auditSlotsCmd := flag.NewFlagSet("auditslots", flag.ContinueOnError)
	auditSlotsInst := auditSlotsCmd.String("institution", "", "Only audit this institution.")
	auditSlotsTeacher := auditSlotsCmd.String("teacher", "", "Only audit this teacher.")

	for _, fs := range []*flag.FlagSet{addYearCmd, importRosterCmd, auditSlotsCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "addyear":
		if err := addYearCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addYearInst == "" || *addYearName == "" || *addYearStart == "" || *addYearEnd == "" {
			addYearCmd.Usage()
			return errHelp
		}
		return cli.addYear(*addYearInst, *addYearName, *addYearStart, *addYearEnd)
	case "importroster":
		if err := importRosterCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *importRosterClass == "" || *importRosterFile == "" {
			importRosterCmd.Usage()
			return errHelp
		}
		return cli.importRoster(*importRosterClass, *importRosterFile)
	case "auditslots":
		if err := auditSlotsCmd.Parse(args[2:]); err != nil {
			return err
		}
		return cli.auditSlots(*auditSlotsInst, *auditSlotsTeacher)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) addYear(institutionID, name, start, end string) error {
	startDate, err := time.Parse("2006-01-02", start)
	if err != nil {
		return fmt.Errorf("invalid start date %q", start)
	}
	endDate, err := time.Parse("2006-01-02", end)
	if err != nil {
		return fmt.Errorf("invalid end date %q", end)
	}
	if !endDate.After(startDate) {
		return errors.New("the academic year must end after it starts")
	}

	ay, err := cli.years.CreateAcademicYear(context.Background(), schedule.AcademicYear{
		ID:            uuid.New().String(),
		InstitutionID: institutionID,
		Name:          name,
		StartDate:     startDate,
		EndDate:       endDate,
		IsCurrent:     true,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "academic year %s (%s) is now current\n", ay.Name, ay.ID)
	return nil
}

func (cli *commandLine) importRoster(classID, path string) error {
	f, err := openFileFunc(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	n, err := cli.rosters.ImportExcel(context.Background(), f, classID)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "imported %d student(s) into class %s\n", n, classID)
	return nil
}

func (cli *commandLine) auditSlots(institutionID, teacherID string) error {
	violations, err := cli.scheduleSvc.Audit(context.Background(), schedule.QueryFilter{
		InstitutionID: institutionID,
		TeacherID:     teacherID,
	})
	if err != nil {
		return err
	}
	for _, v := range violations {
		fmt.Fprintln(cli.out, v)
	}
	if len(violations) > 0 {
		return fmt.Errorf("%d overlapping slot pair(s) found", len(violations))
	}
	fmt.Fprintln(cli.out, "no overlapping slots")
	return nil
}
