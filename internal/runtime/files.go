package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrNotOpen is returned when closing a file that is not open.
var ErrNotOpen = errors.New("file is not open")

// Files manages the files a program writes and reads line by line.
// Files stay open until closed explicitly or by CloseAll at the end of a
// run, so successive writes append to the same stream.
type Files struct {
	mu sync.Mutex

	out map[string]*outputFile
	in  map[string]*inputFile
}

type outputFile struct {
	file   *os.File
	writer *bufio.Writer
}

type inputFile struct {
	file    *os.File
	scanner *bufio.Scanner
}

// NewFiles creates an empty file manager.
func NewFiles() *Files {
	return &Files{
		out: make(map[string]*outputFile),
		in:  make(map[string]*inputFile),
	}
}

// Write writes s to the named file, opening it if needed. The first write
// truncates the file unless appending.
func (m *Files) Write(name, s string, appending bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	of, ok := m.out[name]
	if !ok {
		flag := os.O_WRONLY | os.O_CREATE | os.O_TRUNC
		if appending {
			flag = os.O_WRONLY | os.O_CREATE | os.O_APPEND
		}
		file, err := os.OpenFile(name, flag, 0o644)
		if err != nil {
			return err
		}
		of = &outputFile{file: file, writer: bufio.NewWriter(file)}
		m.out[name] = of
	}

	_, err := of.writer.WriteString(s)
	return err
}

// ReadLine returns the next line of the named file, opening it if needed.
// It reports false at end of file.
func (m *Files) ReadLine(name string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inf, ok := m.in[name]
	if !ok {
		file, err := os.Open(name)
		if err != nil {
			return "", false, err
		}
		inf = &inputFile{file: file, scanner: bufio.NewScanner(file)}
		m.in[name] = inf
	}

	if inf.scanner.Scan() {
		return inf.scanner.Text(), true, nil
	}
	return "", false, inf.scanner.Err()
}

// Close flushes and closes the named file, whether open for writing or
// reading. A later write or read opens it afresh.
func (m *Files) Close(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	found := false
	var errs []error
	if of, ok := m.out[name]; ok {
		found = true
		errs = append(errs, of.close())
		delete(m.out, name)
	}
	if inf, ok := m.in[name]; ok {
		found = true
		errs = append(errs, inf.file.Close())
		delete(m.in, name)
	}
	if !found {
		return fmt.Errorf("%s: %w", name, ErrNotOpen)
	}
	return errors.Join(errs...)
}

// Open returns the number of open files.
func (m *Files) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.out) + len(m.in)
}

// CloseAll flushes and closes every file.
func (m *Files) CloseAll() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var errs []error
	for name, of := range m.out {
		if err := of.close(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	m.out = make(map[string]*outputFile)

	for _, inf := range m.in {
		inf.file.Close()
	}
	m.in = make(map[string]*inputFile)

	return errors.Join(errs...)
}

func (of *outputFile) close() error {
	ferr := of.writer.Flush()
	cerr := of.file.Close()
	return errors.Join(ferr, cerr)
}
