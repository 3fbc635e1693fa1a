// Copyright 2025 The Sigstore Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package armor

const (
	crc24Init = 0xB704CE
	crc24Poly = 0x1864CFB
	crc24Mask = 0xFFFFFF
)

// CRC24 computes the OpenPGP CRC-24 of data and returns it big-endian.
func CRC24(data []byte) [3]byte {
	crc := uint32(crc24Init)
	for _, b := range data {
		crc ^= uint32(b) << 16
		for i := 0; i < 8; i++ {
			crc <<= 1
			if crc&0x1000000 != 0 {
				crc ^= crc24Poly
			}
		}
		crc &= crc24Mask
	}
	return [3]byte{byte(crc >> 16), byte(crc >> 8), byte(crc)}
}
