package stream

// IOType distinguishes which of a command's output file descriptors a
// pipe or TCP stream represents.
type IOType uint8

const (
	IOStdout IOType = iota
	IOStderr
)

func (io IOType) String() string {
	if io == IOStderr {
		return "stderr"
	}
	return "stdout"
}

// FileMode selects how a FileStream's path is opened.
type FileMode uint8

const (
	FileRead FileMode = iota
	FileWrite
	FileAppend
)

// FileStream names a path on disk, read or written at the Location it
// resolves to via the mount-table oracle.
type FileStream struct {
	Path     string
	Mode     FileMode
	Location Location
}

// PipeStream is an intra-host OS pipe connecting node Left's IO output
// to node Right's stdin.
type PipeStream struct {
	Left  NodeId
	Right NodeId
	IO    IOType
}

// NetStream is a PipeStream rewritten to cross machines: the same
// logical edge, now backed by a TCP connection between two Locations.
type NetStream struct {
	Left      NodeId
	Right     NodeId
	IO        IOType
	Sending   Location
	Receiving Location
}

// Kind tags which variant a Stream holds.
type Kind uint8

const (
	KindFile Kind = iota
	KindPipe
	KindTcp
	KindStdout
	KindStderr
)

// Stream is the tagged union {File, Pipe, Tcp, Stdout, Stderr} a node's
// stdin/stdout/stderr vectors are built from. Only the field matching
// Kind is meaningful; the others are zero values.
type Stream struct {
	Kind Kind
	File FileStream
	Pipe PipeStream
	Net  NetStream
}

func NewFileStream(path string, mode FileMode, loc Location) Stream {
	return Stream{Kind: KindFile, File: FileStream{Path: path, Mode: mode, Location: loc}}
}

func NewPipeStream(left, right NodeId, io IOType) Stream {
	return Stream{Kind: KindPipe, Pipe: PipeStream{Left: left, Right: right, IO: io}}
}

func NewNetStream(left, right NodeId, io IOType, sending, receiving Location) Stream {
	return Stream{Kind: KindTcp, Net: NetStream{Left: left, Right: right, IO: io, Sending: sending, Receiving: receiving}}
}

func StdoutStream() Stream { return Stream{Kind: KindStdout} }
func StderrStream() Stream { return Stream{Kind: KindStderr} }

// IsPipe reports whether s is the Pipe variant.
func (s Stream) IsPipe() bool { return s.Kind == KindPipe }

// IsNet reports whether s is the Tcp variant.
func (s Stream) IsNet() bool { return s.Kind == KindTcp }

// IsFile reports whether s is the File variant.
func (s Stream) IsFile() bool { return s.Kind == KindFile }

// AsNetStream converts a Pipe stream crossing machines into its Tcp
// equivalent, preserving Left/Right/IO and attaching the two Locations
// the new TCP connection will span.
func (s Stream) AsNetStream(sending, receiving Location) Stream {
	return NewNetStream(s.Pipe.Left, s.Pipe.Right, s.Pipe.IO, sending, receiving)
}

func (s Stream) String() string {
	switch s.Kind {
	case KindFile:
		return "file:" + s.File.Path
	case KindPipe:
		return "pipe"
	case KindTcp:
		return "tcp"
	case KindStdout:
		return "stdout"
	case KindStderr:
		return "stderr"
	default:
		return "unknown"
	}
}
