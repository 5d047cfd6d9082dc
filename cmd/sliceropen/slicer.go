package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// supportedExtensions are the 3D file types a slicer can open.
var supportedExtensions = map[string]bool{
	".stl":  true,
	".3mf":  true,
	".obj":  true,
	".ply":  true,
	".amf":  true,
	".step": true,
	".stp":  true,
}

// slicerCandidate names one slicer and the places it may be installed.
// The command is also looked up on PATH, which covers Linux and macOS
// installs; the absolute paths cover the stock Windows locations.
type slicerCandidate struct {
	name    string
	command string
	paths   []string
}

// slicerPreference is the fixed selection order.
var slicerPreference = []slicerCandidate{
	{
		name:    "PrusaSlicer",
		command: "prusa-slicer",
		paths: []string{
			`C:\Program Files\Prusa3D\PrusaSlicer\prusa-slicer.exe`,
			`C:\Program Files (x86)\Prusa3D\PrusaSlicer\prusa-slicer.exe`,
		},
	},
	{
		name:    "UltiMaker Cura",
		command: "cura",
		paths: []string{
			`C:\Program Files\Ultimaker Cura\UltiMaker-Cura.exe`,
			`C:\Program Files (x86)\Ultimaker Cura\UltiMaker-Cura.exe`,
		},
	},
	{
		name:    "Bambu Studio",
		command: "bambu-studio",
		paths: []string{
			`C:\Program Files\Bambu Studio\bambu-studio.exe`,
			`C:\Program Files (x86)\Bambu Studio\bambu-studio.exe`,
		},
	},
	{
		name:    "Orca Slicer",
		command: "orca-slicer",
		paths: []string{
			`C:\Program Files\OrcaSlicer\OrcaSlicer.exe`,
			`C:\Program Files (x86)\OrcaSlicer\OrcaSlicer.exe`,
		},
	},
}

// slicerFor returns the executable of the first installed slicer in
// preference order that can open the file.
func slicerFor(filePath string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	if !supportedExtensions[ext] {
		return "", fmt.Errorf("unsupported file type: %s", ext)
	}

	for _, c := range slicerPreference {
		if path, ok := locate(c); ok {
			return path, nil
		}
	}
	return "", fmt.Errorf("no compatible slicer software found; install PrusaSlicer, UltiMaker Cura, Bambu Studio, or Orca Slicer")
}

func locate(c slicerCandidate) (string, bool) {
	if path, err := exec.LookPath(c.command); err == nil {
		return path, true
	}
	for _, p := range c.paths {
		if _, err := os.Stat(p); err == nil {
			return p, true
		}
	}
	return "", false
}

// launchDetached starts the slicer with the file and does not wait; the
// helper exits while the slicer keeps running.
func launchDetached(slicerPath, filePath string) error {
	cmd := exec.Command(slicerPath, filePath)
	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %v", slicerPath, err)
	}
	return cmd.Process.Release()
}
