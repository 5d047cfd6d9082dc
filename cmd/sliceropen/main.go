// sliceropen handles 3dprint:// protocol URLs dispatched by the desktop
// OS and opens the referenced job file in installed slicer software.
//
// It runs outside the workflow service and trusts nothing about its
// input: the URL may come from a spoofed protocol dispatch, so the path
// check here is its own implementation, not a call into the service.
//
//	sliceropen "3dprint://open?file=<percent-encoded-absolute-path>"
//
// Exit status is 0 on success or help display, 1 on any parse, security,
// file, or launch error. Every attempt is appended to a durable log and
// reported on the terminal, since there is no other caller to tell.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("sliceropen", flag.ContinueOnError)
	storageBase := fs.String("storage", defaultStorageBase(), "storage base directory")
	if err := fs.Parse(args); err != nil {
		return 1
	}

	if fs.NArg() == 0 {
		fmt.Println("sliceropen - 3D print file protocol handler")
		fmt.Println(`usage: sliceropen "3dprint://open?file=<encoded_path>"`)
		return 0
	}

	rawURL := fs.Arg(0)
	logger := newAttemptLog(filepath.Join(*storageBase, "logs", "opener.log"))

	path, err := parseProtocolURL(rawURL)
	if err != nil {
		logger.record("parse_error", rawURL, err)
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		return 1
	}

	validated, err := validatePath(*storageBase, path, systemDenylist())
	if err != nil {
		logger.record("security_rejected", path, err)
		fmt.Fprintf(os.Stderr, "SECURITY ERROR: %v\n", err)
		return 1
	}

	if _, err := os.Stat(validated); err != nil {
		logger.record("file_missing", validated, err)
		fmt.Fprintf(os.Stderr, "ERROR: file not found: %s\n", validated)
		return 1
	}

	slicer, err := slicerFor(validated)
	if err != nil {
		logger.record("slicer_error", validated, err)
		fmt.Fprintf(os.Stderr, "SLICER ERROR: %v\n", err)
		return 1
	}

	if err := launchDetached(slicer, validated); err != nil {
		logger.record("launch_error", validated, err)
		fmt.Fprintf(os.Stderr, "SLICER ERROR: %v\n", err)
		return 1
	}

	logger.record("success", validated, nil)
	fmt.Printf("SUCCESS: opened %s in %s\n", filepath.Base(validated), filepath.Base(slicer))
	return 0
}

func defaultStorageBase() string {
	if v := os.Getenv("PRINTFLOW_STORAGE"); v != "" {
		return v
	}
	return "storage"
}
