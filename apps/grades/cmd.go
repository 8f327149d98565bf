package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/trezcool/kitabu/core"
	"github.com/trezcool/kitabu/core/gradebook"
	"github.com/trezcool/kitabu/core/roster"
)

var errHelp = errors.New("help provided")

type commandLine struct {
	logger core.Logger
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  convert -in FILE.gf -out FILE.csv       - convert a gf grades file to CSV")
	fmt.Println("  fromlms -in EXPORT.csv -out FILE.gf     - convert an LMS gradebook export to gf")
	fmt.Println("  classlist -in LIST.csv -out FILE.gf     - convert an Intranet classlist to an empty gf")
	fmt.Println("  submit -in FILE.gf -out SUBMIT.csv -asst NAME [-noshows A,B] - write the registrar submit file")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	convertCmd := flag.NewFlagSet("convert", flag.ExitOnError)
	convertIn := convertCmd.String("in", "", "gf grades file to read")
	convertOut := convertCmd.String("out", "", "CSV file to write")
	convertKey := convertCmd.String("key", string(roster.AttrStudentNumber), "identifying attribute to key by")
	convertHeader := convertCmd.Bool("header", core.Conf.GetBool("csvHeader"), "write a header row")
	convertComments := convertCmd.Bool("comments", core.Conf.GetBool("csvComments"), "append comments as a last column")

	fromLMSCmd := flag.NewFlagSet("fromlms", flag.ExitOnError)
	fromLMSIn := fromLMSCmd.String("in", "", "LMS export CSV to read")
	fromLMSOut := fromLMSCmd.String("out", "", "gf file to write")
	fromLMSLoginID := fromLMSCmd.Bool("loginid", core.Conf.GetBool("includeLoginID"), "include a login id field")

	classlistCmd := flag.NewFlagSet("classlist", flag.ExitOnError)
	classlistIn := classlistCmd.String("in", "", "Intranet classlist CSV to read")
	classlistOut := classlistCmd.String("out", "", "empty gf file to write")
	classlistLoginID := classlistCmd.Bool("loginid", core.Conf.GetBool("includeLoginID"), "include a login id field")

	submitCmd := flag.NewFlagSet("submit", flag.ExitOnError)
	submitIn := submitCmd.String("in", "", "gf grades file to read")
	submitOut := submitCmd.String("out", "", "submit CSV to write")
	submitAsst := submitCmd.String("asst", "all", "name of the final-mark assignment")
	submitNoShows := submitCmd.String("noshows", "", "comma-separated student numbers of exam no-shows")

	switch args[1] {
	case "convert":
		if err := convertCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *convertIn == "" || *convertOut == "" {
			convertCmd.Usage()
			return errHelp
		}
		return cli.convert(*convertIn, *convertOut, roster.Attr(*convertKey), *convertHeader, *convertComments)
	case "fromlms":
		if err := fromLMSCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *fromLMSIn == "" || *fromLMSOut == "" {
			fromLMSCmd.Usage()
			return errHelp
		}
		return cli.fromLMS(*fromLMSIn, *fromLMSOut, *fromLMSLoginID)
	case "classlist":
		if err := classlistCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *classlistIn == "" || *classlistOut == "" {
			classlistCmd.Usage()
			return errHelp
		}
		return cli.classlist(*classlistIn, *classlistOut, *classlistLoginID)
	case "submit":
		if err := submitCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *submitIn == "" || *submitOut == "" || *submitAsst == "" {
			submitCmd.Usage()
			return errHelp
		}
		var noShows []string
		if *submitNoShows != "" {
			noShows = strings.Split(*submitNoShows, ",")
		}
		return cli.submit(*submitIn, *submitOut, *submitAsst, noShows)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) convert(in, out string, key roster.Attr, header, comments bool) error {
	gb, err := cli.loadGF(in, key)
	if err != nil {
		return err
	}
	return cli.withOutput(out, func(f *os.File) error {
		return gb.WriteCSV(f, gradebook.CSVOptions{
			Attrs:    roster.DefaultAttrOrder,
			Header:   header,
			Comments: comments,
		})
	})
}

func (cli *commandLine) fromLMS(in, out string, includeLoginID bool) error {
	inFile, err := os.Open(in)
	if err != nil {
		return err
	}
	defer inFile.Close()
	gb, err := gradebook.LoadLMSExport(inFile, roster.AttrStudentNumber, cli.logger)
	if err != nil {
		return err
	}
	return cli.withOutput(out, func(f *os.File) error {
		return gb.WriteGF(f, nil, includeLoginID, nil)
	})
}

func (cli *commandLine) classlist(in, out string, includeLoginID bool) error {
	inFile, err := os.Open(in)
	if err != nil {
		return err
	}
	defer inFile.Close()
	students, err := roster.LoadIntranetClasslist(inFile, cli.logger)
	if err != nil {
		return err
	}
	return cli.withOutput(out, func(f *os.File) error {
		return gradebook.WriteEmptyGF(f, students, nil, includeLoginID, nil)
	})
}

func (cli *commandLine) submit(in, out, asst string, noShows []string) error {
	gb, err := cli.loadGF(in, roster.AttrStudentNumber)
	if err != nil {
		return err
	}
	return cli.withOutput(out, func(f *os.File) error {
		return gb.WriteSubmitCSV(f, asst, noShows, roster.AttrStudentNumber)
	})
}

func (cli *commandLine) loadGF(path string, key roster.Attr) (*gradebook.GradeBook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return gradebook.LoadGF(f, key, cli.logger)
}

func (cli *commandLine) withOutput(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
