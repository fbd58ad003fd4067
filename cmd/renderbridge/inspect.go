package main

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/vango-dev/renderbridge/internal/errors"
	"github.com/vango-dev/renderbridge/pkg/protocol"
)

func decodeCmd() *cobra.Command {
	var (
		file   string
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "decode [hex...]",
		Short: "Decode messages and print them as JSON",
		Long: `Decode one or more encoded messages and print each as JSON.

Messages are decoded in order with a single string table, the way a
channel sees them, so later messages may refer to strings introduced
by earlier ones.

Examples:
  renderbridge decode ff0d53026869
  renderbridge decode ff0d530161 ff0d5200
  renderbridge decode --file message.bin`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var messages [][]byte
			var sources []string
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return errors.New("R200").Wrap(err)
				}
				messages = append(messages, data)
				sources = append(sources, file)
			}
			for i, arg := range args {
				data, err := parseHex(arg)
				if err != nil {
					return err
				}
				messages = append(messages, data)
				sources = append(sources, fmt.Sprintf("arg%d", i+1))
			}
			if len(messages) == 0 {
				return errors.New("R200").
					WithDetail("No input given").
					WithSuggestion("Pass hex digits as arguments or use --file")
			}
			return runDecode(cmd.OutOrStdout(), messages, sources, indent)
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read one raw message from a file")
	cmd.Flags().BoolVarP(&indent, "indent", "i", false, "Indent JSON output")

	return cmd
}

func runDecode(w io.Writer, messages [][]byte, sources []string, indent bool) error {
	codec := protocol.NewCodec(protocol.NewStringTable())
	enc := json.NewEncoder(w)
	if indent {
		enc.SetIndent("", "  ")
	}
	for i, data := range messages {
		v, err := codec.Unmarshal(data)
		if err != nil {
			return malformedError(sources[i], data, err)
		}
		if err := enc.Encode(jsonValue(v)); err != nil {
			return errors.New("R202").Wrap(err)
		}
	}
	return nil
}

// malformedError converts a decode failure into an R201 pointing at the
// offending byte.
func malformedError(source string, data []byte, err error) error {
	be := errors.New("R201").Wrap(err)
	var me *protocol.MalformedMessageError
	if !stderrors.As(err, &me) {
		return be
	}
	be = be.WithLocation(source, data, me.Offset)
	switch me.Reason {
	case protocol.ReasonBadHeader:
		be = be.WithSuggestion("Messages start with the two header bytes ff 0d")
	case protocol.ReasonBadStringIndex:
		be = be.WithSuggestion("Decode the earlier messages of the channel in the same call so the string table matches")
	case protocol.ReasonTruncated:
		be = be.WithSuggestion("The message ends early; check that it was copied in full")
	}
	return be
}

func encodeCmd() *cobra.Command {
	var spaced bool

	cmd := &cobra.Command{
		Use:   "encode [json...]",
		Short: "Encode JSON values as messages",
		Long: `Encode one or more JSON values and print each message as hex.

Values are encoded in order with a single string table, so a string
repeated across values is written in full only once. Object key order
is preserved. Integral numbers within 32 bits are encoded as Int32,
all others as Double. Without arguments, JSON values are read from
standard input.

Examples:
  renderbridge encode '"hi"'
  renderbridge encode '[{"id":1,"type":"View"}]' '[{"id":2,"type":"View"}]'
  echo '{"x":1.5}' | renderbridge encode`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var inputs []io.Reader
			if len(args) == 0 {
				inputs = append(inputs, cmd.InOrStdin())
			}
			for _, arg := range args {
				inputs = append(inputs, strings.NewReader(arg))
			}
			return runEncode(cmd.OutOrStdout(), inputs, spaced)
		},
	}

	cmd.Flags().BoolVar(&spaced, "spaced", false, "Separate bytes with spaces")

	return cmd
}

func runEncode(w io.Writer, inputs []io.Reader, spaced bool) error {
	codec := protocol.NewCodec(protocol.NewStringTable())
	for _, in := range inputs {
		dec := json.NewDecoder(in)
		dec.UseNumber()
		for {
			v, err := readJSONValue(dec)
			if err == io.EOF {
				break
			}
			if err != nil {
				return errors.New("R202").Wrap(err)
			}
			data, err := codec.Marshal(v)
			if err != nil {
				return errors.New("R203").Wrap(err)
			}
			fmt.Fprintln(w, formatHex(data, spaced))
		}
	}
	return nil
}

func frameCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "frame [hex]",
		Short: "Inspect transport frames",
		Long: `Decode transport frame headers and describe their payloads.

With --file, the file is read as a capture of consecutive frames from one
direction of a session. Inbound payloads are decoded with a single string
table, so later frames may refer to strings introduced by earlier ones.

Examples:
  renderbridge frame 010000000000
  renderbridge frame 020000000007ff0d4101530156
  renderbridge frame --file session.bin`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch {
			case file != "" && len(args) > 0:
				return errors.New("R204").
					WithDetail("Both a hex frame and --file given").
					WithSuggestion("Pass one frame as hex or a capture with --file")
			case file != "":
				f, err := os.Open(file)
				if err != nil {
					return errors.New("R200").Wrap(err)
				}
				defer f.Close()
				return runFrames(cmd.OutOrStdout(), f)
			case len(args) == 1:
				data, err := parseHex(args[0])
				if err != nil {
					return err
				}
				return runFrame(cmd.OutOrStdout(), data)
			default:
				return errors.New("R204").
					WithDetail("No input given").
					WithSuggestion("Pass one frame as hex or a capture with --file")
			}
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Read a capture of consecutive frames")

	return cmd
}

func runFrame(w io.Writer, data []byte) error {
	f, err := protocol.DecodeFrame(data)
	if err != nil {
		be := errors.New("R204").Wrap(err)
		if stderrors.Is(err, protocol.ErrInvalidOp) && len(data) > 0 {
			be = be.WithLocation("frame", data, 0)
		}
		return be
	}
	// A lone frame has no channel history, so only self-contained payloads
	// decode here.
	return describeFrame(w, f, protocol.NewCodec(protocol.NewStringTable()))
}

func runFrames(w io.Writer, r io.Reader) error {
	args := protocol.NewCodec(protocol.NewStringTable())
	for i := 1; ; i++ {
		f, err := protocol.ReadFrame(r)
		if err == io.EOF {
			if i == 1 {
				return errors.New("R204").WithDetail("Capture holds no frames")
			}
			return nil
		}
		if err != nil {
			return errors.New("R204").
				WithDetail(fmt.Sprintf("Frame %d could not be read", i)).
				Wrap(err)
		}
		if i > 1 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "frame:   %d\n", i)
		if err := describeFrame(w, f, args); err != nil {
			return err
		}
	}
}

func describeFrame(w io.Writer, f *protocol.Frame, args *protocol.Codec) error {
	fmt.Fprintf(w, "op:      %s (0x%02x)\n", f.Op, byte(f.Op))
	fmt.Fprintf(w, "flags:   0x%02x\n", byte(f.Flags))
	fmt.Fprintf(w, "payload: %d bytes\n", len(f.Payload))

	switch f.Op {
	case protocol.OpMeasure:
		req, err := protocol.DecodeMeasureRequest(f.Payload)
		if err != nil {
			return errors.New("R204").Wrap(err)
		}
		fmt.Fprintf(w, "measure: node %d, width %g (%s), height %g (%s)\n",
			req.NodeID, req.Width, req.WidthMode, req.Height, req.HeightMode)

	case protocol.OpMeasureResult:
		packed, err := protocol.DecodeMeasureResult(f.Payload)
		if err != nil {
			return errors.New("R204").Wrap(err)
		}
		res := protocol.UnpackMeasureResult(packed)
		fmt.Fprintf(w, "size:    %gx%g (%#016x)\n", res.Width, res.Height, uint64(packed))

	case protocol.OpSizeChanged:
		sc, err := protocol.DecodeSizeChanged(f.Payload)
		if err != nil {
			return errors.New("R204").Wrap(err)
		}
		fmt.Fprintf(w, "size:    instance %d, %gx%g\n", sc.InstanceID, sc.Width, sc.Height)

	case protocol.OpEvent:
		n, err := protocol.DecodeEventNotification(f.Payload, f.Flags)
		if err != nil {
			return errors.New("R204").Wrap(err)
		}
		fmt.Fprintf(w, "event:   instance %d, node %d, %q (capture=%v bubble=%v)\n",
			n.InstanceID, n.NodeID, n.Name, n.UseCapture, n.UseBubble)
		fmt.Fprintf(w, "params:  %s\n", formatHex(n.Payload(), true))

	default:
		if len(f.Payload) == 0 {
			fmt.Fprintln(w, "args:    none")
			return nil
		}
		values, err := args.UnmarshalArgs(f.Payload)
		if err != nil {
			return malformedError("payload", f.Payload, err)
		}
		out, _ := json.Marshal(jsonValue(protocol.Array(values...)))
		fmt.Fprintf(w, "args:    %s\n", out)
	}
	return nil
}

// parseHex decodes hex digits, ignoring whitespace and an optional 0x prefix.
func parseHex(s string) ([]byte, error) {
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	data, err := hex.DecodeString(s)
	if err != nil {
		be := errors.New("R200").Wrap(err)
		var ie hex.InvalidByteError
		if stderrors.As(err, &ie) {
			be = be.WithDetail(fmt.Sprintf("Unexpected character %q", rune(ie)))
		} else if len(s)%2 == 1 {
			be = be.WithDetail("Odd number of hex digits")
		}
		return nil, be
	}
	return data, nil
}

func formatHex(data []byte, spaced bool) string {
	if !spaced {
		return hex.EncodeToString(data)
	}
	var b strings.Builder
	for i, c := range data {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%02x", c)
	}
	return b.String()
}

// jsonValue converts v to a value encoding/json can write. Map keys that are
// not strings are rendered with their JSON text; doubles JSON cannot carry
// become strings.
func jsonValue(v protocol.Value) any {
	switch v.Kind {
	case protocol.KindNull:
		return nil
	case protocol.KindBool:
		return v.Bool
	case protocol.KindInt32:
		return v.Int
	case protocol.KindDouble:
		if math.IsNaN(v.Float) || math.IsInf(v.Float, 0) {
			return strconv.FormatFloat(v.Float, 'g', -1, 64)
		}
		return v.Float
	case protocol.KindString:
		return v.Str
	case protocol.KindArray:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = jsonValue(item)
		}
		return out
	case protocol.KindMap:
		return orderedMap(v.Pairs)
	}
	return nil
}

// orderedMap marshals map pairs as a JSON object in wire order.
type orderedMap []protocol.Pair

func (m orderedMap) MarshalJSON() ([]byte, error) {
	var b bytes.Buffer
	b.WriteByte('{')
	for i, p := range m {
		if i > 0 {
			b.WriteByte(',')
		}
		key := p.Key.Str
		if p.Key.Kind != protocol.KindString {
			raw, err := json.Marshal(jsonValue(p.Key))
			if err != nil {
				return nil, err
			}
			key = string(raw)
		}
		k, _ := json.Marshal(key)
		b.Write(k)
		b.WriteByte(':')
		val, err := json.Marshal(jsonValue(p.Value))
		if err != nil {
			return nil, err
		}
		b.Write(val)
	}
	b.WriteByte('}')
	return b.Bytes(), nil
}

// readJSONValue reads one JSON value token by token so object keys keep
// their input order.
func readJSONValue(dec *json.Decoder) (protocol.Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return protocol.Value{}, err
	}
	return jsonTokenValue(dec, tok)
}

func jsonTokenValue(dec *json.Decoder, tok json.Token) (protocol.Value, error) {
	v, err := jsonTokenValueInner(dec, tok)
	if err == io.EOF {
		// EOF is only clean between values.
		err = io.ErrUnexpectedEOF
	}
	return v, err
}

func jsonTokenValueInner(dec *json.Decoder, tok json.Token) (protocol.Value, error) {
	switch t := tok.(type) {
	case nil:
		return protocol.Null(), nil
	case bool:
		return protocol.Bool(t), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return protocol.Value{}, err
		}
		return protocol.Number(f), nil
	case string:
		return protocol.String(t), nil
	case json.Delim:
		switch t {
		case '[':
			var items []protocol.Value
			for dec.More() {
				item, err := readJSONValue(dec)
				if err != nil {
					return protocol.Value{}, err
				}
				items = append(items, item)
			}
			if _, err := dec.Token(); err != nil {
				return protocol.Value{}, err
			}
			return protocol.Array(items...), nil
		case '{':
			var pairs []protocol.Pair
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return protocol.Value{}, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return protocol.Value{}, fmt.Errorf("object key %v is not a string", keyTok)
				}
				val, err := readJSONValue(dec)
				if err != nil {
					return protocol.Value{}, err
				}
				pairs = append(pairs, protocol.Pair{Key: protocol.String(key), Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return protocol.Value{}, err
			}
			return protocol.Map(pairs...), nil
		}
	}
	return protocol.Value{}, fmt.Errorf("unexpected JSON token %v", tok)
}
