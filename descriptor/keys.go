// seehuhn.de/go/psd - a library for reading and writing PSD and PSB files
// Copyright (C) 2025  Jochen Voss <voss@seehuhn.de>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package descriptor

// charIDs lists the four character keys which Photoshop writes with a zero
// length prefix.  All other keys, including four character string IDs like
// "warp", are written with an explicit length.
var charIDs = map[string]bool{
	// classes
	"Actn": true, "Adjs": true, "AdjL": true, "BckL": true, "Blnd": true,
	"Chnl": true, "Clr ": true, "CMYC": true, "Dcmn": true, "DrSh": true,
	"Grdn": true, "GrSt": true, "Grsc": true, "HSBC": true, "LbCl": true,
	"Lyr ": true, "null": true, "Objc": true, "Ofst": true, "Pnt ": true,
	"Ptrn": true, "Rctn": true, "RGBC": true, "Styl": true, "TxLr": true,
	"TxtS": true, "Trnf": true, "Lefx": true, "FrFX": true, "SoFi": true,
	"IrSh": true, "OrGl": true, "IrGl": true, "ebbl": true, "ChFX": true,
	"BkCl": true,

	// keys
	"Angl": true, "Annt": true, "AntA": true, "Bl  ": true, "Blck": true,
	"Btom": true, "Clr:": true, "ClrT": true, "Cntn": true, "Crop": true,
	"Cyn ": true, "Dstn": true, "Dstt": true, "Enbl": true, "enab": true,
	"Grn ": true, "H   ": true, "Hght": true, "Hrzn": true, "Idnt": true,
	"Intr": true, "Left": true, "Lmnc": true, "Md  ": true, "Mgnt": true,
	"Nm  ": true, "Opct": true, "Ornt": true, "PgNm": true, "Rd  ": true,
	"Rds ": true, "Rght": true, "Rslt": true, "Scl ": true, "Sz  ": true,
	"Sftn": true, "Strt": true, "Top ": true, "Type": true, "Vrtc": true,
	"Wdth": true, "Ylw ": true, "comp": true, "Clry": true, "Grad": true,
	"Inpt": true, "Lctn": true, "Mdpn": true, "Rvrs": true,
	"Algn": true, "Orgn": true, "Path": true,

	// enumerations and types
	"Pxl ": true, "Prcn": true, "Rlt ": true, "Nrml": true,
	"BlnM": true, "Ordn": true, "Trgt": true, "Qcsa": true,

	// units
	"#Ang": true, "#Rsl": true, "#Rlt": true, "#Nne": true, "#Prc": true,
	"#Pxl": true, "#Pnt": true, "#Mlm": true,
}
