package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/google/renameio"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/names-to-faces/internal/app"
	"github.com/kozaktomas/names-to-faces/internal/config"
	"github.com/kozaktomas/names-to-faces/internal/imaging"
	"github.com/kozaktomas/names-to-faces/internal/person"
)

var peopleCmd = &cobra.Command{
	Use:   "people",
	Short: "Manage the people list",
	Long: `Manage the people list. Every subcommand unlocks the list first and
locks it again when done.`,
}

var peopleListCmd = &cobra.Command{
	Use:   "list",
	Short: "List people",
	Args:  cobra.NoArgs,
	RunE:  runPeopleList,
}

var peopleAddCmd = &cobra.Command{
	Use:   "add <image> [image...]",
	Short: "Add a person for each image",
	Long: `Add a person named "Unknown" for each image. Images are stored as JPEG.
Supported inputs are JPEG, PNG, GIF, BMP and WebP.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPeopleAdd,
}

var peopleRenameCmd = &cobra.Command{
	Use:   "rename <index> <name...>",
	Short: "Rename the person at index",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runPeopleRename,
}

var peopleDeleteCmd = &cobra.Command{
	Use:   "delete <index> [index...]",
	Short: "Delete people and their images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runPeopleDelete,
}

var peopleImageCmd = &cobra.Command{
	Use:   "image <index> <output-file>",
	Short: "Write the image of the person at index",
	Args:  cobra.ExactArgs(2),
	RunE:  runPeopleImage,
}

func init() {
	rootCmd.AddCommand(peopleCmd)
	peopleCmd.AddCommand(peopleListCmd, peopleAddCmd, peopleRenameCmd, peopleDeleteCmd, peopleImageCmd)

	peopleListCmd.Flags().Bool("json", false, "Output as JSON")
	peopleListCmd.Flags().String("find", "", "Only list people whose name matches, ignoring case and diacritics")
	peopleAddCmd.Flags().String("name", "", "Name for the added people instead of Unknown")
	peopleAddCmd.Flags().Bool("skip-duplicates", false, "Skip images that look like a photo already in the list")
}

// withUnlockedApp opens the app, unlocks it on the terminal and runs fn on the
// main loop. The app is backgrounded and closed afterwards.
func withUnlockedApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	rt, err := newRuntime(ctx, config.Load(), nil)
	if err != nil {
		return err
	}
	defer rt.Close()

	if _, err := rt.unlock(ctx, newTerminalPrompter()); err != nil {
		return err
	}

	var fnErr error
	if err := rt.do(ctx, func(a *app.App) { fnErr = fn(ctx, a) }); err != nil {
		return err
	}
	return fnErr
}

func parseIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid index %q", s)
	}
	return i, nil
}

func runPeopleList(cmd *cobra.Command, args []string) error {
	asJSON := mustGetBool(cmd, "json")
	query := mustGetString(cmd, "find")
	return withUnlockedApp(cmd, func(ctx context.Context, a *app.App) error {
		matches, err := a.Find(query)
		if err != nil {
			return err
		}
		people := a.People()
		if asJSON {
			selected := make([]person.Person, 0, len(matches))
			for _, i := range matches {
				selected = append(selected, people[i])
			}
			return printJSON(selected)
		}

		if len(people) == 0 {
			fmt.Println("No people yet. Add some with: names-to-faces people add <image>")
			return nil
		}
		fmt.Printf("%-6s %-30s %s\n", "INDEX", "NAME", "IMAGE")
		for _, i := range matches {
			fmt.Printf("%-6d %-30s %s\n", i, people[i].Name, people[i].ImageRef)
		}
		fmt.Printf("\n%d of %d people\n", len(matches), len(people))
		return nil
	})
}

func runPeopleAdd(cmd *cobra.Command, args []string) error {
	name := mustGetString(cmd, "name")
	skipDuplicates := mustGetBool(cmd, "skip-duplicates")
	return withUnlockedApp(cmd, func(ctx context.Context, a *app.App) error {
		var known *fingerprints
		if skipDuplicates {
			known = newFingerprints(ctx, a)
		}

		bar := progressbar.NewOptions(len(args),
			progressbar.OptionSetDescription("Adding"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("images"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "=",
				SaucerHead:    ">",
				SaucerPadding: " ",
				BarStart:      "[",
				BarEnd:        "]",
			}),
		)

		var added []person.Person
		var failures, skipped []string
		for _, path := range args {
			p, err := addImage(ctx, a, path, name, known)
			switch {
			case errors.Is(err, errDuplicate):
				skipped = append(skipped, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			case err != nil:
				failures = append(failures, fmt.Sprintf("%s: %v", filepath.Base(path), err))
			default:
				added = append(added, p)
			}
			bar.Add(1)
		}
		bar.Finish()
		fmt.Println()

		fmt.Printf("Added %d people\n", len(added))
		for _, s := range skipped {
			fmt.Printf("  Skipped: %s\n", s)
		}
		for _, f := range failures {
			fmt.Printf("  Failed: %s\n", f)
		}
		if len(failures) > 0 {
			return fmt.Errorf("%d of %d images could not be added", len(failures), len(args))
		}
		return nil
	})
}

func addImage(ctx context.Context, a *app.App, path, name string, known *fingerprints) (person.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return person.Person{}, fmt.Errorf("reading image: %w", err)
	}
	var hash uint64
	if known != nil {
		if hash, err = imaging.Fingerprint(data); err == nil {
			if i, dup := known.match(hash); dup {
				return person.Person{}, fmt.Errorf("%w of %d", errDuplicate, i)
			}
		}
	}
	p, err := a.OnCapture(ctx, data)
	if err != nil {
		return person.Person{}, err
	}
	if known != nil {
		known.add(hash)
	}
	if name == "" {
		return p, nil
	}
	index := len(a.People()) - 1
	if err := a.OnRename(ctx, index, name); err != nil {
		return p, err
	}
	return a.People()[index], nil
}

func runPeopleRename(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	name := strings.Join(args[1:], " ")
	return withUnlockedApp(cmd, func(ctx context.Context, a *app.App) error {
		if err := a.OnRename(ctx, index, name); err != nil {
			return err
		}
		fmt.Printf("Renamed %d to %q\n", index, a.People()[index].Name)
		return nil
	})
}

func runPeopleDelete(cmd *cobra.Command, args []string) error {
	indexes := make([]int, 0, len(args))
	for _, arg := range args {
		i, err := parseIndex(arg)
		if err != nil {
			return err
		}
		indexes = append(indexes, i)
	}
	indexes = deleteOrder(indexes)

	return withUnlockedApp(cmd, func(ctx context.Context, a *app.App) error {
		for _, i := range indexes {
			if err := a.OnDelete(ctx, i); err != nil {
				return err
			}
			fmt.Printf("Deleted %d\n", i)
		}
		fmt.Printf("%d people left\n", len(a.People()))
		return nil
	})
}

func runPeopleImage(cmd *cobra.Command, args []string) error {
	index, err := parseIndex(args[0])
	if err != nil {
		return err
	}
	out := args[1]
	return withUnlockedApp(cmd, func(ctx context.Context, a *app.App) error {
		data, err := a.Image(ctx, index)
		if err != nil {
			return err
		}
		if err := renameio.WriteFile(out, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", out, err)
		}
		fmt.Printf("Wrote %s (%d bytes)\n", out, len(data))
		return nil
	})
}

// deleteOrder returns indexes deduplicated and sorted from the back, so each
// deletion leaves the remaining indexes valid.
func deleteOrder(indexes []int) []int {
	out := slices.Clone(indexes)
	slices.Sort(out)
	out = slices.Compact(out)
	slices.Reverse(out)
	return out
}

var errDuplicate = errors.New("looks like a duplicate")

// fingerprints holds the image fingerprint of every person, by index.
type fingerprints struct {
	hashes []uint64
	valid  []bool
}

// newFingerprints fingerprints the stored image of every person. People
// without a readable image never match.
func newFingerprints(ctx context.Context, a *app.App) *fingerprints {
	f := &fingerprints{}
	for i := range a.People() {
		hash, ok := uint64(0), false
		if data, stored, err := a.StoredImage(ctx, i); err == nil && stored {
			hash, err = imaging.Fingerprint(data)
			ok = err == nil
		}
		f.hashes = append(f.hashes, hash)
		f.valid = append(f.valid, ok)
	}
	return f
}

func (f *fingerprints) add(hash uint64) {
	f.hashes = append(f.hashes, hash)
	f.valid = append(f.valid, true)
}

func (f *fingerprints) match(hash uint64) (int, bool) {
	for i, h := range f.hashes {
		if f.valid[i] && imaging.Similar(h, hash, imaging.DuplicateThreshold) {
			return i, true
		}
	}
	return 0, false
}
