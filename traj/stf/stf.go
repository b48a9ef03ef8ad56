package stf

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/lzw"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
	imp "github.com/rmera/goimp"
	v3 "github.com/rmera/goimp/v3"
)

const (
	lzwLitwidth int = 8
	defaultPrec int = 2
)

//Write!
type StfW struct {
	f           *os.File
	h           io.WriteCloser
	natoms      int
	filename    string
	writeable   bool
	framebuffer *v3.Matrix
	prec        int
	last        int //index of the last frame written
}

//Close flushes the compressor and closes the file. It can be called more than once.
func (S *StfW) Close() error {
	if S == nil || !S.writeable {
		return nil
	}
	S.writeable = false
	err := S.h.Close()
	if err2 := S.f.Close(); err == nil {
		err = err2
	}
	if err != nil {
		return Error{err.Error(), S.filename, []string{"Close"}, true}
	}
	return nil
}

//Len returns the number of particles in each frame.
func (S *StfW) Len() int {
	return S.natoms
}

//Last returns the index of the last frame written, or -1 if none has been.
func (S *StfW) Last() int {
	return S.last
}

//WNext writes coord as the frame with the given index, which has to be
//larger than the index of any frame previously written.
func (S *StfW) WNext(frame int, coord *v3.Matrix) error {
	if !S.writeable {
		return Error{TrajUnIniWrite, S.filename, []string{"WNext"}, true}
	}
	if coord == nil {
		return Error{NilCoordinates, S.filename, []string{"WNext"}, true}
	}
	if frame <= S.last {
		return Error{fmt.Sprintf("%s: frame %d after frame %d", FrameOrder, frame, S.last), S.filename, []string{"WNext"}, true}
	}
	v := coord.NVecs()
	if v != S.natoms {
		return Error{fmt.Sprintf("%d coordinates given, but %d expected", v, S.natoms), S.filename, []string{"WNext"}, true}
	}
	var temp [3]int
	w := bufio.NewWriter(S.h)
	for i := 0; i < v; i++ {
		w.WriteString(coordsEncode(coord.Vec(i), temp, S.prec))
	}
	fmt.Fprintf(w, "* %d\n", frame)
	if err := w.Flush(); err != nil {
		return Error{err.Error(), S.filename, []string{"WNext"}, true}
	}
	S.last = frame
	return nil
}

//WriteModel writes the current coordinates of the particles ps of m as the given frame.
func (S *StfW) WriteModel(m *imp.Model, ps []imp.ParticleIndex, frame int) error {
	if len(ps) != S.natoms {
		return Error{fmt.Sprintf("%d particles given, but %d expected", len(ps), S.natoms), S.filename, []string{"WriteModel"}, true}
	}
	S.framebuffer = imp.Coords(m, ps, S.framebuffer)
	return errDecorate(S.WNext(frame, S.framebuffer), "WriteModel")
}

func compressedWriter(name string, level int) func(io.Writer) (io.WriteCloser, error) {
	zstdwriter := func(a io.Writer) (io.WriteCloser, error) {
		return zstd.NewWriter(a, zstd.WithEncoderLevel(zstd.SpeedBestCompression))
	}
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Writer) (io.WriteCloser, error) { return lzw.NewWriter(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Writer) (io.WriteCloser, error) { return gzip.NewWriterLevel(a, level) }
	case 'r':
		return func(a io.Writer) (io.WriteCloser, error) { return flate.NewWriter(a, level) }
	default:
		return zstdwriter
	}
}

//NewWriter creates the file name and writes the header for natoms particles.
//The header map is written as key=value lines, sorted by key. A "prec" entry
//sets the number of decimals stored. The optional compression level is used by
//the gzip and deflate formats.
func NewWriter(name string, natoms int, header map[string]string, compressionLevel ...int) (*StfW, error) {
	level := flate.BestCompression
	if len(compressionLevel) > 0 {
		level = compressionLevel[0]
	}
	if name == "" {
		return nil, Error{UnableToOpen, name, []string{"NewWriter"}, true}
	}
	S := &StfW{filename: name, natoms: natoms, prec: defaultPrec, last: -1}
	if p, ok := header["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 0 {
			return nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"NewWriter"}, true}
		}
		S.prec = prec
	}
	var err error
	S.f, err = os.Create(name)
	if err != nil {
		return nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.h, err = compressedWriter(name, level)(S.f)
	if err != nil {
		S.f.Close()
		return nil, Error{"Can't start the compressor " + err.Error(), name, []string{"NewWriter"}, true}
	}
	keys := make([]string, 0, len(header))
	for k := range header {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	headerstr := ""
	for _, k := range keys {
		headerstr += fmt.Sprintf("%s=%s\n", k, header[k])
	}
	headerstr += fmt.Sprintf("** %d\n", natoms)
	if _, err = S.h.Write([]byte(headerstr)); err != nil {
		S.h.Close()
		S.f.Close()
		return nil, Error{"Can't write header " + err.Error(), name, []string{"NewWriter"}, true}
	}
	S.writeable = true
	return S, nil
}

//Read!
type StfR struct {
	f        *os.File
	lzw      io.ReadCloser
	h        *bufio.Reader
	natoms   int
	filename string
	prec     int
	readable bool
	last     int
}

//Why couldn't *zstd.Decoder implement io.ReadCloser? :-(
type stdql struct {
	*zstd.Decoder
}

//Close Closes the object. It can not be used after this call
func (s stdql) Close() error {
	s.Decoder.Close()
	return nil
}

func coordsEncode(f [3]float64, temp [3]int, prec int) string {
	p := 100.0
	if prec != defaultPrec {
		p = math.Pow(10.0, float64(prec))
	}
	for i, v := range f {
		temp[i] = int(math.RoundToEven(v * p))
	}
	return fmt.Sprintf("%d %d %d\n", temp[0], temp[1], temp[2])
}

func coordsDecode(str string, temp *[3]float64, prec int) error {
	p := 100.0
	if prec != defaultPrec {
		p = math.Pow(10.0, float64(prec))
	}
	s := strings.Fields(str)
	if len(s) != 3 {
		return fmt.Errorf("Ill formated coordinates line in stf: %d fields: %s", len(s), str)
	}
	for i, v := range s {
		f, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Can't parse coordinate %d (%s). Error: %s", i, v, err.Error())
		}
		temp[i] = float64(f) / p
	}
	return nil
}

func compressedReader(name string) func(io.Reader) (io.ReadCloser, error) {
	switch strings.ToLower(name)[len(name)-1] {
	case 'l':
		return func(a io.Reader) (io.ReadCloser, error) { return lzw.NewReader(a, lzw.MSB, lzwLitwidth), nil }
	case 'z':
		return func(a io.Reader) (io.ReadCloser, error) { return gzip.NewReader(a) }
	case 'r':
		return func(a io.Reader) (io.ReadCloser, error) { return flate.NewReader(a), nil }
	default:
		return func(a io.Reader) (io.ReadCloser, error) {
			r, err := zstd.NewReader(a)
			if err != nil {
				return nil, err
			}
			return stdql{r}, nil
		}
	}
}

//New opens a STF trajectory for reading, and returns a pointer
//to the handle, a map with the metadata (empty if no metadata is found)
//and error or nil.
func New(name string) (*StfR, map[string]string, error) {
	S := &StfR{filename: name, natoms: -1, prec: defaultPrec, last: -1}
	m := make(map[string]string)
	var err error
	S.f, err = os.Open(name)
	if err != nil {
		return nil, nil, Error{UnableToOpen + ": " + err.Error(), name, []string{"New"}, true}
	}
	S.lzw, err = compressedReader(name)(bufio.NewReader(S.f))
	if err != nil {
		S.f.Close()
		return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
	}
	S.h = bufio.NewReader(S.lzw)
	for {
		str, err := S.h.ReadString('\n')
		if err != nil {
			S.close()
			return nil, nil, Error{"Can't read header " + err.Error(), name, []string{"New"}, true}
		}
		str = strings.TrimSuffix(str, "\n")
		if strings.HasPrefix(str, "**") {
			nat := strings.Fields(str)
			if len(nat) < 2 {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read particle number from '%s'", str), name, []string{"New"}, true}
			}
			S.natoms, err = strconv.Atoi(nat[1])
			if err != nil {
				S.close()
				return nil, nil, Error{fmt.Sprintf("Can't read particle number from '%s': %s", nat[1], err.Error()), name, []string{"New"}, true}
			}
			break
		}
		kv := strings.SplitN(str, "=", 2)
		if len(kv) != 2 {
			S.close()
			return nil, nil, Error{WrongFormat + ": malformed header line " + str, name, []string{"New"}, true}
		}
		m[kv[0]] = kv[1]
	}
	if p, ok := m["prec"]; ok {
		prec, err := strconv.Atoi(p)
		if err != nil || prec < 0 {
			S.close()
			return nil, nil, Error{fmt.Sprintf("invalid precision %q", p), name, []string{"New"}, true}
		}
		S.prec = prec
	}
	S.readable = true
	return S, m, nil
}

//Readable returns true if the handle is readable (if it is possible to call Next on it)
func (S *StfR) Readable() bool {
	return S.readable
}

//Next puts in c the coordinates of the next frame and returns the frame index.
//If c is nil, the frame is read and checked, but not stored.
//At the end of the trajectory, the error returned implements LastFrameError,
//which is not an actual error. A frame index that does not increase is an error.
func (S *StfR) Next(c *v3.Matrix) (int, error) {
	if !S.readable {
		return -1, Error{TrajUnIniRead, S.filename, []string{"Next"}, true}
	}
	if c != nil && c.NVecs() != S.natoms {
		return -1, Error{fmt.Sprintf(NotEnoughSpace+": %d vectors, %d needed", c.NVecs(), S.natoms), S.filename, []string{"Next"}, true}
	}
	var temp [3]float64
	for i := 0; i < S.natoms; i++ {
		b, err := S.h.ReadString('\n')
		if err != nil {
			if err == io.EOF && i == 0 && b == "" {
				//nothing bad happened here, the trajectory just ended.
				S.Close()
				return -1, newlastFrameError(S.filename, "Next")
			}
			return -1, Error{ReadError + ": " + err.Error(), S.filename, []string{"Next"}, true}
		}
		if err = coordsDecode(strings.TrimSuffix(b, "\n"), &temp, S.prec); err != nil {
			return -1, Error{err.Error(), S.filename, []string{"Next"}, true}
		}
		if c != nil {
			c.SetVec(i, temp)
		}
	}
	s, err := S.h.ReadString('\n')
	if err != nil {
		return -1, Error{"Can't read the frame termination mark " + err.Error(), S.filename, []string{"Next"}, true}
	}
	fields := strings.Fields(s)
	if len(fields) != 2 || fields[0] != "*" {
		return -1, Error{WrongFormat + ": bad frame termination " + strings.TrimSpace(s), S.filename, []string{"Next"}, true}
	}
	frame, err := strconv.Atoi(fields[1])
	if err != nil {
		return -1, Error{WrongFormat + ": bad frame index " + fields[1], S.filename, []string{"Next"}, true}
	}
	if frame <= S.last {
		return -1, Error{fmt.Sprintf("%s: frame %d after frame %d", FrameOrder, frame, S.last), S.filename, []string{"Next"}, true}
	}
	S.last = frame
	return frame, nil
}

func (S *StfR) close() {
	S.lzw.Close()
	S.f.Close()
}

//Close closes the object, and marks it as unreadable
func (S *StfR) Close() {
	if !S.readable {
		return
	}
	S.close()
	S.readable = false
}

//Len returns the number of particles in each frame of the trajectory.
func (S *StfR) Len() int {
	return S.natoms
}

//ReadAll reads the rest of the trajectory and returns the frames and their indexes.
func (S *StfR) ReadAll() ([]*v3.Matrix, []int, error) {
	var frames []*v3.Matrix
	var indexes []int
	for {
		c := v3.Zeros(S.natoms)
		f, err := S.Next(c)
		if err != nil {
			if _, ok := err.(LastFrameError); ok {
				return frames, indexes, nil
			}
			return frames, indexes, errDecorate(err, "ReadAll")
		}
		frames = append(frames, c)
		indexes = append(indexes, f)
	}
}

//Errors

//errDecorate decorates the error with the caller's name before returning it,
//if it is one of ours. nil stays nil.
func errDecorate(err error, caller string) error {
	if err == nil {
		return nil
	}
	if err2, ok := err.(imp.Decorated); ok {
		err2.Decorate(caller)
		return err2
	}
	return err
}

//Error is the general structure for STF trajectory errors. It fullfills imp.Decorated
type Error struct {
	message  string
	filename string //the input file that has problems, or empty string if none.
	deco     []string
	critical bool
}

func (err Error) Error() string {
	return fmt.Sprintf("stf file %s error: %s", err.filename, err.message)
}

//Decorate Adds new information to the error
func (E Error) Decorate(deco string) []string {
	//Even thought this method does not use a pointer as a receiver, and tries to alter the received,
	//it should work, since E.deco is a slice, and hence a pointer itself.
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

//Filename returns the file to which the failing trajectory was associated
func (err Error) FileName() string { return err.filename }

//Format returns the format of the file (always "stf") associated to the error
func (err Error) Format() string { return "stf" }

//Critical returns true if the error is critical, false otherwise
func (err Error) Critical() bool { return err.critical }

const (
	TrajUnIniRead  = "Traj object uninitialized to read"
	TrajUnIniWrite = "Traj object uninitialized to write"
	ReadError      = "Error reading frame"
	UnableToOpen   = "Unable to open file"
	NilCoordinates = "Given nil coordinates"
	WrongFormat    = "Wrong format in the STF file or frame"
	NotEnoughSpace = "Not enough space in passed blocks"
	FrameOrder     = "Frame indexes must be strictly increasing"
)

//LastFrameError is returned by Next when the trajectory ends normally.
type LastFrameError interface {
	error
	NormalLastFrameTermination()
}

//lastFrameError implements LastFrameError
type lastFrameError struct {
	deco     []string
	fileName string
}

//lastFrameError does nothing
func (E *lastFrameError) NormalLastFrameTermination() {}

func (E *lastFrameError) FileName() string { return E.fileName }

func (E *lastFrameError) Error() string { return "EOF" }

func (E *lastFrameError) Critical() bool { return false }

func (E *lastFrameError) Format() string { return "stf" }

func (E *lastFrameError) Decorate(deco string) []string {
	if deco != "" {
		E.deco = append(E.deco, deco)
	}
	return E.deco
}

func newlastFrameError(filename string, caller string) *lastFrameError {
	return &lastFrameError{fileName: filename, deco: []string{caller}}
}
