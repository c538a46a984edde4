/*
Copyright 2023 The Nuclio Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package socket

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"io"

	"github.com/nuclio/rpcworker/pkg/common/jsoncodec"
	"github.com/nuclio/rpcworker/pkg/worker/config"
	"github.com/nuclio/rpcworker/pkg/worker/protocol"

	"github.com/nuclio/errors"
	"github.com/vmihailenco/msgpack/v4"
)

// MessageEncoder writes framed messages
type MessageEncoder interface {
	Encode(message *protocol.StreamingMessage) error
}

// MessageDecoder reads framed messages, returning io.EOF when the peer closes cleanly
type MessageDecoder interface {
	Decode() (*protocol.StreamingMessage, error)
}

func NewMessageEncoder(encoding config.SocketEncoding, writer io.Writer) (MessageEncoder, error) {
	switch encoding {
	case config.JSONSocketEncoding, "":
		return &jsonEncoder{writer: writer}, nil
	case config.MsgpackSocketEncoding:
		return newMsgpackEncoder(writer), nil
	}

	return nil, errors.Errorf("Unsupported socket encoding: %s", encoding)
}

func NewMessageDecoder(encoding config.SocketEncoding,
	reader io.Reader,
	maxMessageLength int) (MessageDecoder, error) {
	switch encoding {
	case config.JSONSocketEncoding, "":
		return &jsonDecoder{reader: bufio.NewReader(reader), maxMessageLength: maxMessageLength}, nil
	case config.MsgpackSocketEncoding:
		return &msgpackDecoder{reader: reader, maxMessageLength: maxMessageLength}, nil
	}

	return nil, errors.Errorf("Unsupported socket encoding: %s", encoding)
}

// jsonEncoder writes one JSON document per line
type jsonEncoder struct {
	writer io.Writer
}

func (e *jsonEncoder) Encode(message *protocol.StreamingMessage) error {
	encodedMessage, err := jsoncodec.Marshal(message)
	if err != nil {
		return errors.Wrap(err, "Failed to encode message")
	}

	if _, err := e.writer.Write(append(encodedMessage, '\n')); err != nil {
		return errors.Wrap(err, "Failed to write message to socket")
	}

	return nil
}

type jsonDecoder struct {
	reader           *bufio.Reader
	maxMessageLength int
}

func (d *jsonDecoder) Decode() (*protocol.StreamingMessage, error) {
	line, err := d.readLine()
	if err != nil {
		if err == io.EOF && len(bytes.TrimSpace(line)) == 0 {
			return nil, io.EOF
		}

		if err != io.EOF {
			return nil, err
		}
	}

	message := &protocol.StreamingMessage{}
	if err := jsoncodec.Unmarshal(line, message); err != nil {
		return nil, errors.Wrap(err, "Failed to decode message")
	}

	return message, nil
}

// readLine reads up to and including the next newline, failing once the line outgrows maxMessageLength
func (d *jsonDecoder) readLine() ([]byte, error) {
	var line []byte

	for {
		fragment, err := d.reader.ReadSlice('\n')
		line = append(line, fragment...)

		if d.maxMessageLength > 0 && len(bytes.TrimRight(line, "\r\n")) > d.maxMessageLength {
			return nil, errors.Errorf("Message exceeds max size %d", d.maxMessageLength)
		}

		switch err {
		case nil:
			return line, nil
		case bufio.ErrBufferFull:
			continue
		case io.EOF:
			return line, io.EOF
		default:
			return nil, errors.Wrap(err, "Failed to read message from socket")
		}
	}
}

// msgpackEncoder prefixes every message with its length as a big endian int32
type msgpackEncoder struct {
	writer  io.Writer
	buf     bytes.Buffer
	encoder *msgpack.Encoder
}

func newMsgpackEncoder(writer io.Writer) *msgpackEncoder {
	newEncoder := &msgpackEncoder{writer: writer}
	newEncoder.encoder = msgpack.NewEncoder(&newEncoder.buf)
	newEncoder.encoder.UseJSONTag(true)

	return newEncoder
}

func (e *msgpackEncoder) Encode(message *protocol.StreamingMessage) error {
	e.buf.Reset()
	if err := e.encoder.Encode(message); err != nil {
		return errors.Wrap(err, "Failed to encode message")
	}

	if err := binary.Write(e.writer, binary.BigEndian, int32(e.buf.Len())); err != nil {
		return errors.Wrap(err, "Failed to write message size to socket")
	}

	if _, err := e.writer.Write(e.buf.Bytes()); err != nil {
		return errors.Wrap(err, "Failed to write message to socket")
	}

	return nil
}

type msgpackDecoder struct {
	reader           io.Reader
	maxMessageLength int
}

func (d *msgpackDecoder) Decode() (*protocol.StreamingMessage, error) {
	var messageLength int32

	if err := binary.Read(d.reader, binary.BigEndian, &messageLength); err != nil {
		if err == io.EOF {
			return nil, io.EOF
		}

		return nil, errors.Wrap(err, "Failed to read message size from socket")
	}

	if messageLength < 0 || (d.maxMessageLength > 0 && int(messageLength) > d.maxMessageLength) {
		return nil, errors.Errorf("Invalid message size %d (max %d)", messageLength, d.maxMessageLength)
	}

	encodedMessage := make([]byte, messageLength)
	if _, err := io.ReadFull(d.reader, encodedMessage); err != nil {
		return nil, errors.Wrap(err, "Failed to read message from socket")
	}

	message := &protocol.StreamingMessage{}
	decoder := msgpack.NewDecoder(bytes.NewReader(encodedMessage))
	decoder.UseJSONTag(true)

	if err := decoder.Decode(message); err != nil {
		return nil, errors.Wrap(err, "Failed to decode message")
	}

	return message, nil
}
