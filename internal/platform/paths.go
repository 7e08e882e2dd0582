// Package platform resolves where lanes reads its config and writes its logs.
package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// Environment variables consulted when the matching flag is unset.
const (
	EnvConfig  = "LANES_CONFIG"
	EnvAppName = "LANES_APP_NAME"
	EnvDevMode = "LANES_DEV_MODE"
)

// DefaultAppName names the config and data directories when nothing overrides it.
const DefaultAppName = "lanes"

// ErrNoHome reports that no base directory could be derived from the environment.
var ErrNoHome = errors.New("no home directory")

// Options carries the CLI inputs. Blank or false fields fall back to the environment.
type Options struct {
	AppName    string
	DevMode    bool
	ConfigPath string
	// GOOS and Getenv default to the running platform.
	GOOS   string
	Getenv func(string) string
}

// Paths is the resolved runtime layout for one invocation.
type Paths struct {
	AppName    string
	DevMode    bool
	ConfigPath string
	// ConfigExplicit is true when ConfigPath came from a flag or LANES_CONFIG.
	ConfigExplicit bool
	DataDir        string
	LogDir         string
}

// Resolve merges flags, LANES_* variables and platform base dirs. Dev mode keeps
// its config and logs in a separate "<app>-dev" directory.
func Resolve(opts Options) (Paths, error) {
	getenv := opts.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	goos := opts.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	out := Paths{
		AppName: firstNonBlank(opts.AppName, getenv(EnvAppName), DefaultAppName),
		DevMode: opts.DevMode,
	}
	if !out.DevMode {
		out.DevMode, _ = parseBool(getenv(EnvDevMode))
	}
	dirName := out.AppName
	if out.DevMode {
		dirName += "-dev"
	}

	configBase, dataBase, err := baseDirs(goos, getenv)
	if err != nil {
		return Paths{}, err
	}
	out.DataDir = filepath.Join(dataBase, dirName)
	out.LogDir = filepath.Join(out.DataDir, "logs")

	if explicit := firstNonBlank(opts.ConfigPath, getenv(EnvConfig)); explicit != "" {
		out.ConfigPath = explicit
		out.ConfigExplicit = true
	} else {
		out.ConfigPath = filepath.Join(configBase, dirName, "config.toml")
	}
	return out, nil
}

// DevLogFile returns the day-stamped dev log file under LogDir.
func (p Paths) DevLogFile(now time.Time) string {
	return filepath.Join(p.LogDir, fmt.Sprintf("%s-%s.log", logFileStem(p.AppName), now.Format("20060102")))
}

// baseDirs picks the config and data roots for goos.
func baseDirs(goos string, getenv func(string) string) (string, string, error) {
	home := strings.TrimSpace(getenv("HOME"))
	switch goos {
	case "windows":
		roaming := strings.TrimSpace(getenv("APPDATA"))
		if roaming == "" {
			profile := strings.TrimSpace(getenv("USERPROFILE"))
			if profile == "" {
				return "", "", ErrNoHome
			}
			roaming = filepath.Join(profile, "AppData", "Roaming")
		}
		return roaming, firstNonBlank(getenv("LOCALAPPDATA"), roaming), nil
	case "darwin":
		if home == "" {
			return "", "", ErrNoHome
		}
		support := filepath.Join(home, "Library", "Application Support")
		return support, support, nil
	default:
		configBase := strings.TrimSpace(getenv("XDG_CONFIG_HOME"))
		dataBase := strings.TrimSpace(getenv("XDG_DATA_HOME"))
		if (configBase == "" || dataBase == "") && home == "" {
			return "", "", ErrNoHome
		}
		if configBase == "" {
			configBase = filepath.Join(home, ".config")
		}
		if dataBase == "" {
			dataBase = filepath.Join(home, ".local", "share")
		}
		return configBase, dataBase, nil
	}
}

// parseBool reads a boolean env value. Blank or malformed input reports false, false.
func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// logFileStem makes an app name safe to use in a file name.
func logFileStem(appName string) string {
	replacer := strings.NewReplacer("/", "-", "\\", "-", ":", "-", " ", "-")
	stem := strings.Trim(replacer.Replace(strings.TrimSpace(appName)), "-")
	if stem == "" {
		return DefaultAppName
	}
	return stem
}
