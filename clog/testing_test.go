package clog

import "bytes"

// withBuffer 将日志输出写入指定缓冲区，仅用于测试
func withBuffer(buf *bytes.Buffer) Option {
	return func(o *options) {
		o.buffer = buf
	}
}
