// Command diskfs is a thin command-line front end over the volume package:
// format a container, then create, read, write, list, move, link, and
// remove files inside it.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/noxer/bytewriter"
	"github.com/urfave/cli/v2"

	"github.com/rmilewski4/diskfs/layout"
	"github.com/rmilewski4/diskfs/volume"
)

func main() {
	app := cli.App{
		Usage: "Create and manipulate single-volume inode-based disk containers",
		Commands: []*cli.Command{
			{
				Name:      "format",
				Usage:     "Create a fresh, empty container file",
				ArgsUsage: "CONTAINER",
				Action:    formatContainer,
			},
			{
				Name:      "create",
				Usage:     "Create an empty regular file or directory",
				ArgsUsage: "CONTAINER PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "dir", Usage: "create a directory instead of a regular file"},
				},
				Action: createPath,
			},
			{
				Name:      "cat",
				Usage:     "Print a regular file's contents to stdout",
				ArgsUsage: "CONTAINER PATH",
				Action:    catFile,
			},
			{
				Name:      "write",
				Usage:     "Overwrite a regular file's contents from stdin",
				ArgsUsage: "CONTAINER PATH",
				Action:    writeFile,
			},
			{
				Name:      "ls",
				Usage:     "List a directory's entries",
				ArgsUsage: "CONTAINER PATH",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "csv", Usage: "emit name,type as CSV instead of a plain table"},
				},
				Action: listDir,
			},
			{
				Name:      "mv",
				Usage:     "Move or rename a file or directory",
				ArgsUsage: "CONTAINER SRC DST",
				Action:    movePath,
			},
			{
				Name:      "ln",
				Usage:     "Create an additional link to an existing file",
				ArgsUsage: "CONTAINER SRC DST",
				Action:    linkPath,
			},
			{
				Name:      "rm",
				Usage:     "Remove a file or an empty directory",
				ArgsUsage: "CONTAINER PATH",
				Action:    removePath,
			},
			{
				Name:      "fsck",
				Usage:     "Check the container's internal invariants",
				ArgsUsage: "CONTAINER",
				Action:    fsckContainer,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("diskfs: %s", err)
	}
}

func formatContainer(c *cli.Context) error {
	path := c.Args().Get(0)
	if path == "" {
		return cli.Exit("format requires a CONTAINER path", 1)
	}
	_, err := volume.Format(path)
	return err
}

func mustMount(c *cli.Context) (*volume.Volume, string, error) {
	path := c.Args().Get(0)
	if path == "" {
		return nil, "", cli.Exit("missing CONTAINER path", 1)
	}
	v, err := volume.Mount(path)
	if err != nil {
		return nil, "", err
	}
	return v, path, nil
}

func createPath(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()

	ftype := layout.FileTypeRegular
	if c.Bool("dir") {
		ftype = layout.FileTypeDirectory
	}
	return v.Create(c.Args().Get(1), ftype)
}

func catFile(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()

	fd, err := v.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer v.Close(fd)

	size, err := v.Seek(fd, 0, layout.SeekEnd)
	if err != nil {
		return err
	}
	if _, err := v.Seek(fd, 0, layout.SeekSet); err != nil {
		return err
	}

	contents := make([]byte, size)
	out := bytewriter.New(contents)
	chunk := make([]byte, layout.BlockSize)
	for written := int64(0); written < size; {
		n, err := v.Read(fd, chunk)
		if n > 0 {
			if _, werr := out.Write(chunk[:n]); werr != nil {
				return werr
			}
			written += int64(n)
		}
		if n == 0 || err != nil {
			break
		}
	}
	_, err = os.Stdout.Write(contents)
	return err
}

func writeFile(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()

	data, err := os.ReadFile(os.Stdin.Name())
	if err != nil {
		return err
	}

	fd, err := v.Open(c.Args().Get(1))
	if err != nil {
		return err
	}
	defer v.Close(fd)

	_, err = v.Write(fd, data)
	return err
}

type lsRow struct {
	Name string `csv:"name"`
	Type string `csv:"type"`
}

func listDir(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()

	entries, err := v.List(c.Args().Get(1))
	if err != nil {
		return err
	}

	rows := make([]*lsRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &lsRow{Name: e.Name, Type: fileTypeName(e.Type)})
	}

	if c.Bool("csv") {
		out, err := gocsv.MarshalString(&rows)
		if err != nil {
			return err
		}
		fmt.Print(out)
		return nil
	}

	for _, r := range rows {
		fmt.Printf("%-6s %s\n", r.Type, r.Name)
	}
	return nil
}

func fileTypeName(t layout.FileType) string {
	if t == layout.FileTypeDirectory {
		return "dir"
	}
	return "file"
}

func movePath(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()
	return v.Move(c.Args().Get(1), c.Args().Get(2))
}

func linkPath(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()
	return v.Link(c.Args().Get(1), c.Args().Get(2))
}

func removePath(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()
	return v.Remove(c.Args().Get(1))
}

func fsckContainer(c *cli.Context) error {
	v, _, err := mustMount(c)
	if err != nil {
		return err
	}
	defer v.Unmount()
	return v.CheckInvariants()
}
