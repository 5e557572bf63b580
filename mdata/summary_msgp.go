package mdata

import (
	"github.com/tinylib/msgp/msgp"
)

// MarshalMsg implements msgp.Marshaler
func (z *Histogram) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendArrayHeader(o, uint32(len(z)))
	for za0001 := range z {
		o = msgp.AppendUint32(o, z[za0001])
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Histogram) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadArrayHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	if zb0001 != uint32(len(z)) {
		err = msgp.ArrayError{Wanted: uint32(len(z)), Got: zb0001}
		return
	}
	for za0001 := range z {
		z[za0001], bts, err = msgp.ReadUint32Bytes(bts)
		if err != nil {
			err = msgp.WrapError(err, za0001)
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Histogram) Msgsize() (s int) {
	s = msgp.ArrayHeaderSize + (len(z) * (msgp.Uint32Size))
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *ChannelSummary) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 4)
	o = msgp.AppendString(o, "avg")
	o = msgp.AppendFloat64(o, z.Avg)
	o = msgp.AppendString(o, "min")
	o = msgp.AppendFloat64(o, z.Min)
	o = msgp.AppendString(o, "max")
	o = msgp.AppendFloat64(o, z.Max)
	o = msgp.AppendString(o, "h")
	o, err = z.Hist.MarshalMsg(o)
	if err != nil {
		err = msgp.WrapError(err, "Hist")
		return
	}
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *ChannelSummary) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "avg":
			z.Avg, bts, err = msgp.ReadFloat64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Avg")
				return
			}
		case "min":
			z.Min, bts, err = msgp.ReadFloat64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Min")
				return
			}
		case "max":
			z.Max, bts, err = msgp.ReadFloat64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Max")
				return
			}
		case "h":
			bts, err = z.Hist.UnmarshalMsg(bts)
			if err != nil {
				err = msgp.WrapError(err, "Hist")
				return
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *ChannelSummary) Msgsize() (s int) {
	s = msgp.MapHeaderSize + msgp.StringPrefixSize + 3 + msgp.Float64Size + msgp.StringPrefixSize + 3 + msgp.Float64Size + msgp.StringPrefixSize + 3 + msgp.Float64Size + msgp.StringPrefixSize + 1 + z.Hist.Msgsize()
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *PhaseSummary) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 5)
	for _, f := range z.fields() {
		o = msgp.AppendString(o, f.key)
		o, err = f.val.MarshalMsg(o)
		if err != nil {
			err = msgp.WrapError(err, f.key)
			return
		}
	}
	return
}

type phaseField struct {
	key string
	val *ChannelSummary
}

func (z *PhaseSummary) fields() [5]phaseField {
	return [5]phaseField{
		{"v", &z.Vrms},
		{"i", &z.Irms},
		{"p", &z.PowerActive},
		{"q", &z.PowerReactive},
		{"pf", &z.PowerFactor},
	}
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *PhaseSummary) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	fields := z.fields()
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		var dst *ChannelSummary
		for _, f := range fields {
			if f.key == msgp.UnsafeString(field) {
				dst = f.val
				break
			}
		}
		if dst == nil {
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
			continue
		}
		bts, err = dst.UnmarshalMsg(bts)
		if err != nil {
			err = msgp.WrapError(err, string(field))
			return
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *PhaseSummary) Msgsize() (s int) {
	s = msgp.MapHeaderSize
	for _, f := range z.fields() {
		s += msgp.StringPrefixSize + len(f.key) + f.val.Msgsize()
	}
	return
}

// MarshalMsg implements msgp.Marshaler
func (z *Summary) MarshalMsg(b []byte) (o []byte, err error) {
	o = msgp.Require(b, z.Msgsize())
	o = msgp.AppendMapHeader(o, 5)
	o = msgp.AppendString(o, "p")
	o = msgp.AppendArrayHeader(o, uint32(len(z.Phases)))
	for za0001 := range z.Phases {
		o, err = z.Phases[za0001].MarshalMsg(o)
		if err != nil {
			err = msgp.WrapError(err, "Phases", za0001)
			return
		}
	}
	o = msgp.AppendString(o, "f")
	o, err = z.Frequency.MarshalMsg(o)
	if err != nil {
		err = msgp.WrapError(err, "Frequency")
		return
	}
	o = msgp.AppendString(o, "n")
	o = msgp.AppendUint32(o, z.Count)
	o = msgp.AppendString(o, "ts")
	o = msgp.AppendInt64(o, z.Start)
	o = msgp.AppendString(o, "te")
	o = msgp.AppendInt64(o, z.End)
	return
}

// UnmarshalMsg implements msgp.Unmarshaler
func (z *Summary) UnmarshalMsg(bts []byte) (o []byte, err error) {
	var field []byte
	_ = field
	var zb0001 uint32
	zb0001, bts, err = msgp.ReadMapHeaderBytes(bts)
	if err != nil {
		err = msgp.WrapError(err)
		return
	}
	for zb0001 > 0 {
		zb0001--
		field, bts, err = msgp.ReadMapKeyZC(bts)
		if err != nil {
			err = msgp.WrapError(err)
			return
		}
		switch msgp.UnsafeString(field) {
		case "p":
			var zb0002 uint32
			zb0002, bts, err = msgp.ReadArrayHeaderBytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Phases")
				return
			}
			if zb0002 != uint32(len(z.Phases)) {
				err = msgp.ArrayError{Wanted: uint32(len(z.Phases)), Got: zb0002}
				return
			}
			for za0001 := range z.Phases {
				bts, err = z.Phases[za0001].UnmarshalMsg(bts)
				if err != nil {
					err = msgp.WrapError(err, "Phases", za0001)
					return
				}
			}
		case "f":
			bts, err = z.Frequency.UnmarshalMsg(bts)
			if err != nil {
				err = msgp.WrapError(err, "Frequency")
				return
			}
		case "n":
			z.Count, bts, err = msgp.ReadUint32Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Count")
				return
			}
		case "ts":
			z.Start, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "Start")
				return
			}
		case "te":
			z.End, bts, err = msgp.ReadInt64Bytes(bts)
			if err != nil {
				err = msgp.WrapError(err, "End")
				return
			}
		default:
			bts, err = msgp.Skip(bts)
			if err != nil {
				err = msgp.WrapError(err)
				return
			}
		}
	}
	o = bts
	return
}

// Msgsize returns an upper bound estimate of the number of bytes occupied by the serialized message
func (z *Summary) Msgsize() (s int) {
	s = msgp.MapHeaderSize + msgp.StringPrefixSize + 1 + msgp.ArrayHeaderSize
	for za0001 := range z.Phases {
		s += z.Phases[za0001].Msgsize()
	}
	s += msgp.StringPrefixSize + 1 + z.Frequency.Msgsize() + msgp.StringPrefixSize + 1 + msgp.Uint32Size + msgp.StringPrefixSize + 2 + msgp.Int64Size + msgp.StringPrefixSize + 2 + msgp.Int64Size
	return
}
