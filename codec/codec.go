// Package codec bundles the result-set writers.
package codec

import (
	"io"

	csvcodec "github.com/go-data-exporter/dbrelay/codec/csv"
	jsoncodec "github.com/go-data-exporter/dbrelay/codec/json"
	tablecodec "github.com/go-data-exporter/dbrelay/codec/table"
	xmlcodec "github.com/go-data-exporter/dbrelay/codec/xml"
	"github.com/go-data-exporter/dbrelay/scanner"
)

// Codec writes one result set.
type Codec interface {
	Write(rows scanner.Rows, writer io.Writer) error
}

func JSON(opts ...jsoncodec.Option) Codec {
	return jsoncodec.New(opts...)
}

func CSV(opts ...csvcodec.Option) Codec {
	return csvcodec.New(opts...)
}

func XML(opts ...xmlcodec.Option) Codec {
	return xmlcodec.New(opts...)
}

func Table(opts ...tablecodec.Option) Codec {
	return tablecodec.New(opts...)
}
