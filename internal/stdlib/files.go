package stdlib

import (
	"os"

	"github.com/kolkov/soul/internal/types"
)

// readFile returns the whole file as a string.
func readFile(args []types.Value) (types.Value, error) {
	path, err := pathArg("read_file", args)
	if err != nil {
		return types.Null(), err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return types.Null(), err
	}
	return types.Str(string(content)), nil
}

// readLine returns the next line of the file, or null at its end.
func (env *Env) readLine(args []types.Value) (types.Value, error) {
	path, err := pathArg("read_line", args)
	if err != nil {
		return types.Null(), err
	}
	line, ok, err := env.Files.ReadLine(path)
	if err != nil || !ok {
		return types.Null(), err
	}
	return types.Str(line), nil
}

func (env *Env) writeFile(args []types.Value) (types.Value, error) {
	return env.write("write_file", args, false)
}

func (env *Env) appendFile(args []types.Value) (types.Value, error) {
	return env.write("append_file", args, true)
}

// write renders args[1] into the file. The file stays open for further
// writes until close_file or the end of the run.
func (env *Env) write(name string, args []types.Value, appending bool) (types.Value, error) {
	path, err := pathArg(name, args)
	if err != nil {
		return types.Null(), err
	}
	return types.Null(), env.Files.Write(path, args[1].String(), appending)
}

func (env *Env) closeFile(args []types.Value) (types.Value, error) {
	path, err := pathArg("close_file", args)
	if err != nil {
		return types.Null(), err
	}
	return types.Null(), env.Files.Close(path)
}

func pathArg(name string, args []types.Value) (string, error) {
	if args[0].Kind() != types.KindString {
		return "", argError(name, 1, "string", args[0])
	}
	return args[0].AsStr(), nil
}
