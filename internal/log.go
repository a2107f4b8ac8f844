// Copyright (C) 2020 Markus L. Noga
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Destination for all log output. Defaults to stdout; LogAlsoToFile adds a file.
var LogWriter io.Writer = os.Stdout

var logMutex sync.Mutex
var logFile *os.File

// Duplicate log output into the given file, truncating it
func LogAlsoToFile(fileName string) error {
	f, err := os.Create(fileName)
	if err != nil {
		return err
	}
	logMutex.Lock()
	defer logMutex.Unlock()
	logFile = f
	LogWriter = io.MultiWriter(os.Stdout, f)
	return nil
}

// Close the log file, if any, and revert to stdout
func LogSync() {
	logMutex.Lock()
	defer logMutex.Unlock()
	if logFile != nil {
		logFile.Close()
		logFile = nil
	}
	LogWriter = os.Stdout
}

func LogPrint(v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprint(LogWriter, v...)
}

func LogPrintf(format string, v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintf(LogWriter, format, v...)
}

func LogPrintln(v ...interface{}) {
	logMutex.Lock()
	defer logMutex.Unlock()
	fmt.Fprintln(LogWriter, v...)
}

// Log the message and exit with a non-zero status
func LogFatal(v ...interface{}) {
	LogPrintln(v...)
	LogSync()
	os.Exit(1)
}

// Log the formatted message and exit with a non-zero status
func LogFatalf(format string, v ...interface{}) {
	LogPrintf(format, v...)
	LogSync()
	os.Exit(1)
}
