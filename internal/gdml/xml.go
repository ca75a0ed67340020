package gdml

import (
	"encoding/xml"
	"strconv"
)

// SchemaLocation is written as xsi:noNamespaceSchemaLocation on the root.
const SchemaLocation = "http://service-spi.web.cern.ch/service-spi/app/releases/GDML/schema/gdml.xsd"

type document struct {
	XMLName   xml.Name  `xml:"gdml"`
	XSI       string    `xml:"xmlns:xsi,attr,omitempty"`
	Location  string    `xml:"xsi:noNamespaceSchemaLocation,attr,omitempty"`
	Define    struct{}  `xml:"define"`
	Materials materials `xml:"materials"`
	Solids    solids    `xml:"solids"`
	Volumes   []volume  `xml:"structure>volume"`
	UserInfo  *userInfo `xml:"userinfo"`
	Setup     setup     `xml:"setup"`
}

type materials struct {
	Isotopes  []isotope  `xml:"isotope"`
	Elements  []element  `xml:"element"`
	Materials []material `xml:"material"`
}

type isotope struct {
	Name string `xml:"name,attr"`
	Z    int    `xml:"Z,attr"`
	N    int    `xml:"N,attr"`
	Atom atom   `xml:"atom"`
}

type atom struct {
	Unit  string  `xml:"unit,attr,omitempty"`
	Value float64 `xml:"value,attr"`
}

type element struct {
	Name      string     `xml:"name,attr"`
	Fractions []fraction `xml:"fraction"`
}

type fraction struct {
	Ref string  `xml:"ref,attr"`
	N   float64 `xml:"n,attr"`
}

type material struct {
	Name      string     `xml:"name,attr"`
	State     string     `xml:"state,attr,omitempty"`
	D         atom       `xml:"D"`
	Fractions []fraction `xml:"fraction"`
}

// solids keeps every shape element in document order. The tag name is the
// solid kind; absent attributes stay empty.
type solids struct {
	Items []solid `xml:",any"`
}

type solid struct {
	XMLName  xml.Name
	Name     string    `xml:"name,attr"`
	LUnit    string    `xml:"lunit,attr,omitempty"`
	AUnit    string    `xml:"aunit,attr,omitempty"`
	X        string    `xml:"x,attr,omitempty"`
	Y        string    `xml:"y,attr,omitempty"`
	Z        string    `xml:"z,attr,omitempty"`
	RMin     string    `xml:"rmin,attr,omitempty"`
	RMax     string    `xml:"rmax,attr,omitempty"`
	StartPhi string    `xml:"startphi,attr,omitempty"`
	DeltaPhi string    `xml:"deltaphi,attr,omitempty"`
	RZPoints []rzPoint `xml:"rzpoint"`
	First    *ref      `xml:"first"`
	Second   *ref      `xml:"second"`
	Position *vector   `xml:"position"`
	Rotation *vector   `xml:"rotation"`
}

type rzPoint struct {
	R string `xml:"r,attr"`
	Z string `xml:"z,attr"`
}

type ref struct {
	Ref string `xml:"ref,attr"`
}

type vector struct {
	Name string `xml:"name,attr,omitempty"`
	Unit string `xml:"unit,attr,omitempty"`
	X    string `xml:"x,attr"`
	Y    string `xml:"y,attr"`
	Z    string `xml:"z,attr"`
}

type volume struct {
	Name        string      `xml:"name,attr"`
	MaterialRef ref         `xml:"materialref"`
	SolidRef    ref         `xml:"solidref"`
	PhysVols    []physVol   `xml:"physvol"`
	Auxiliaries []auxiliary `xml:"auxiliary"`
}

type physVol struct {
	Name      string  `xml:"name,attr"`
	VolumeRef ref     `xml:"volumeref"`
	Position  *vector `xml:"position"`
	Rotation  *vector `xml:"rotation"`
}

type auxiliary struct {
	Type     string      `xml:"auxtype,attr"`
	Value    string      `xml:"auxvalue,attr"`
	Children []auxiliary `xml:"auxiliary"`
}

type userInfo struct {
	Auxiliaries []auxiliary `xml:"auxiliary"`
}

type setup struct {
	Name    string `xml:"name,attr"`
	Version string `xml:"version,attr"`
	World   ref    `xml:"world"`
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
