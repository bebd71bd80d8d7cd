package gcode

import (
	"bufio"
	"strconv"
	"strings"
)

// modalState is the interpreter state that persists across lines: the
// active positioning and extrusion modes plus the running coordinates.
// It never leaves the interpreter.
type modalState struct {
	absolutePos bool
	absoluteExt bool
	pos         Point
	e           float64
	xSet        bool
	ySet        bool
}

// Parse interprets G-code text into a Program. It never fails: lines it
// does not recognize, and words it cannot parse, are skipped. Firmware is
// tolerant of junk in a file and so are we.
func Parse(text string) *Program {
	st := modalState{absolutePos: true, absoluteExt: true}
	var segments []Segment

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if idx := strings.IndexByte(line, ';'); idx >= 0 {
			line = line[:idx]
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		cmd, words := parseWords(line)
		switch cmd {
		case "G90":
			st.absolutePos = true
		case "G91":
			st.absolutePos = false
		case "M82":
			st.absoluteExt = true
		case "M83":
			st.absoluteExt = false
		case "G92":
			// Only the extrusion axis is honored on offset set.
			if v, ok := words['E']; ok {
				st.e = v
			}
		case "G0", "G1":
			if seg, ok := st.move(words); ok {
				segments = append(segments, seg)
			}
		}
	}

	return &Program{Segments: segments, Analysis: Analyze(segments)}
}

// parseWords splits a command line into its command name and a map from
// axis letter to numeric value. Words with an unparsable number are
// dropped rather than failing the line.
func parseWords(line string) (string, map[byte]float64) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", nil
	}
	cmd := normalizeCommand(fields[0])

	words := make(map[byte]float64, len(fields)-1)
	for _, f := range fields[1:] {
		if len(f) < 2 {
			continue
		}
		letter := upperByte(f[0])
		if letter < 'A' || letter > 'Z' {
			continue
		}
		v, err := strconv.ParseFloat(f[1:], 64)
		if err != nil {
			continue
		}
		words[letter] = v
	}
	return cmd, words
}

// normalizeCommand canonicalizes a command word: case folded and with
// leading zeros in the number removed, so "g01" matches "G1".
func normalizeCommand(word string) string {
	if len(word) < 2 {
		return strings.ToUpper(word)
	}
	letter := upperByte(word[0])
	num, err := strconv.Atoi(word[1:])
	if err != nil {
		return strings.ToUpper(word)
	}
	return string(letter) + strconv.Itoa(num)
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}

// move applies a G0/G1 to the modal state and reports the resulting
// segment, if any. Until both X and Y have been established by an earlier
// move there is no valid start point, so the first moves only prime the
// state.
func (st *modalState) move(words map[byte]float64) (Segment, bool) {
	primed := st.xSet && st.ySet
	prev := st.pos
	prevE := st.e

	if v, ok := words['X']; ok {
		st.pos.X = resolve(st.pos.X, v, st.absolutePos)
		st.xSet = true
	}
	if v, ok := words['Y']; ok {
		st.pos.Y = resolve(st.pos.Y, v, st.absolutePos)
		st.ySet = true
	}
	if v, ok := words['Z']; ok {
		st.pos.Z = resolve(st.pos.Z, v, st.absolutePos)
	}

	var eDelta float64
	if v, ok := words['E']; ok {
		newE := resolve(st.e, v, st.absoluteExt)
		eDelta = newE - prevE
		st.e = newE
	}

	if !primed {
		return Segment{}, false
	}
	posChanged := st.pos != prev
	if !posChanged && eDelta <= 0 {
		return Segment{}, false
	}
	return Segment{Start: prev, End: st.pos, Extrude: eDelta > 0}, true
}

func resolve(current, value float64, absolute bool) float64 {
	if absolute {
		return value
	}
	return current + value
}
