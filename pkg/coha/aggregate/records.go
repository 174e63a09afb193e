package aggregate

import (
	"github.com/cognicore/coha/pkg/coha/frame"
)

// YearWordCount is a row of the year×word output.
type YearWordCount struct {
	Year *int32  `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Word *string `parquet:"name=word, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	N    int64   `parquet:"name=n, type=INT64"`
}

// YearLemmaPOSCount is a row of the year×lemma×pos output.
type YearLemmaPOSCount struct {
	Year  *int32  `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Lemma *string `parquet:"name=lemma, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	POS   *string `parquet:"name=pos, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	N     int64   `parquet:"name=n, type=INT64"`
}

// YearLemmaCount is a row of the top lemmas output.
type YearLemmaCount struct {
	Year  *int32  `parquet:"name=year, type=INT32, repetitiontype=OPTIONAL"`
	Lemma *string `parquet:"name=lemma, type=BYTE_ARRAY, convertedtype=UTF8, repetitiontype=OPTIONAL"`
	N     int64   `parquet:"name=n, type=INT64"`
}

func int32Ptr(v any) *int32 {
	if n, ok := frame.Cast(v, frame.KindInt32).(int32); ok {
		return &n
	}
	return nil
}

func stringPtr(v any) *string {
	if s, ok := frame.Cast(v, frame.KindString).(string); ok {
		return &s
	}
	return nil
}

func count(v any) int64 {
	n, _ := frame.Cast(v, frame.KindInt64).(int64)
	return n
}

func yearWordRecords(t *frame.Table) []YearWordCount {
	out := make([]YearWordCount, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = YearWordCount{Year: int32Ptr(r[0]), Word: stringPtr(r[1]), N: count(r[2])}
	}
	return out
}

func yearLemmaPOSRecords(t *frame.Table) []YearLemmaPOSCount {
	out := make([]YearLemmaPOSCount, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = YearLemmaPOSCount{Year: int32Ptr(r[0]), Lemma: stringPtr(r[1]), POS: stringPtr(r[2]), N: count(r[3])}
	}
	return out
}

func yearLemmaRecords(t *frame.Table) []YearLemmaCount {
	out := make([]YearLemmaCount, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = YearLemmaCount{Year: int32Ptr(r[0]), Lemma: stringPtr(r[1]), N: count(r[2])}
	}
	return out
}
