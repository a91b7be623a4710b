package client

import (
	"encoding/xml"
	"strings"
)

// Remote operation names
const (
	opOpenSession            = "OpenSession"
	opGetRelaties            = "GetRelaties"
	opGetGrootboekrekeningen = "GetGrootboekrekeningen"
	opGetMutaties            = "GetMutaties"
	opAddFactuur             = "AddFactuur"
	opAddRelatie             = "AddRelatie"
	opUpdateRelatie          = "UpdateRelatie"
)

// errorMsg is the error descriptor embedded in every operation result.
// An empty or "0" code means the call succeeded.
type errorMsg struct {
	LastErrorCode        string `xml:"LastErrorCode"`
	LastErrorDescription string `xml:"LastErrorDescription"`
}

func (e errorMsg) failed() bool {
	code := strings.TrimSpace(e.LastErrorCode)
	return code != "" && code != "0"
}

// operationResult is implemented by every <Operation>Result payload
type operationResult interface {
	resultName() string
	errorDescriptor() errorMsg
}

// ── Requests ─────────────────────────────────────────────────────────────────

type openSessionRequest struct {
	XMLName       xml.Name `xml:"http://www.e-boekhouden.nl/soap OpenSession"`
	Username      string   `xml:"Username"`
	SecurityCode1 string   `xml:"SecurityCode1"`
	SecurityCode2 string   `xml:"SecurityCode2"`
}

type getRelatiesRequest struct {
	XMLName       xml.Name       `xml:"http://www.e-boekhouden.nl/soap GetRelaties"`
	SessionID     string         `xml:"SessionID"`
	SecurityCode2 string         `xml:"SecurityCode2"`
	Filter        relatiesFilter `xml:"cFilter"`
}

type relatiesFilter struct {
	Trefwoord string `xml:"Trefwoord"`
	Code      string `xml:"Code"`
	ID        int64  `xml:"ID"`
}

type getGrootboekrekeningenRequest struct {
	XMLName       xml.Name      `xml:"http://www.e-boekhouden.nl/soap GetGrootboekrekeningen"`
	SessionID     string        `xml:"SessionID"`
	SecurityCode2 string        `xml:"SecurityCode2"`
	Filter        ledgersFilter `xml:"cFilter"`
}

type ledgersFilter struct {
	ID        string `xml:"ID"`
	Code      string `xml:"Code"`
	Categorie string `xml:"Categorie"`
}

type getMutatiesRequest struct {
	XMLName       xml.Name       `xml:"http://www.e-boekhouden.nl/soap GetMutaties"`
	SessionID     string         `xml:"SessionID"`
	SecurityCode2 string         `xml:"SecurityCode2"`
	Filter        mutatiesFilter `xml:"cFilter"`
}

type mutatiesFilter struct {
	MutatieNr     int64  `xml:"MutatieNr"`
	MutatieNrVan  int64  `xml:"MutatieNrVan"`
	MutatieNrTm   int64  `xml:"MutatieNrTm"`
	Factuurnummer string `xml:"Factuurnummer"`
	DatumVan      string `xml:"DatumVan"`
	DatumTm       string `xml:"DatumTm"`
}

type addFactuurRequest struct {
	XMLName       xml.Name `xml:"http://www.e-boekhouden.nl/soap AddFactuur"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Factuur       factuur  `xml:"oFact"`
}

type addRelatieRequest struct {
	XMLName       xml.Name `xml:"http://www.e-boekhouden.nl/soap AddRelatie"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Relatie       relatie  `xml:"oRel"`
}

type updateRelatieRequest struct {
	XMLName       xml.Name `xml:"http://www.e-boekhouden.nl/soap UpdateRelatie"`
	SessionID     string   `xml:"SessionID"`
	SecurityCode2 string   `xml:"SecurityCode2"`
	Relatie       relatie  `xml:"oRel"`
}

// ── Records ──────────────────────────────────────────────────────────────────

// relatie is the remote relation schema. Every element must be present.
type relatie struct {
	ID                      int64  `xml:"ID"`
	AddDatum                string `xml:"AddDatum"`
	Code                    string `xml:"Code"`
	Bedrijf                 string `xml:"Bedrijf"`
	Contactpersoon          string `xml:"Contactpersoon"`
	Geslacht                string `xml:"Geslacht"`
	Adres                   string `xml:"Adres"`
	Postcode                string `xml:"Postcode"`
	Plaats                  string `xml:"Plaats"`
	Land                    string `xml:"Land"`
	Adres2                  string `xml:"Adres2"`
	Postcode2               string `xml:"Postcode2"`
	Plaats2                 string `xml:"Plaats2"`
	Land2                   string `xml:"Land2"`
	Telefoon                string `xml:"Telefoon"`
	GSM                     string `xml:"GSM"`
	FAX                     string `xml:"FAX"`
	Email                   string `xml:"Email"`
	Site                    string `xml:"Site"`
	Notitie                 string `xml:"Notitie"`
	Bankrekening            string `xml:"Bankrekening"`
	Girorekening            string `xml:"Girorekening"`
	BTWNummer               string `xml:"BTWNummer"`
	Aanhef                  string `xml:"Aanhef"`
	IBAN                    string `xml:"IBAN"`
	BIC                     string `xml:"BIC"`
	BP                      string `xml:"BP"`
	Def1                    string `xml:"Def1"`
	Def2                    string `xml:"Def2"`
	Def3                    string `xml:"Def3"`
	Def4                    string `xml:"Def4"`
	Def5                    string `xml:"Def5"`
	Def6                    string `xml:"Def6"`
	Def7                    string `xml:"Def7"`
	Def8                    string `xml:"Def8"`
	Def9                    string `xml:"Def9"`
	Def10                   string `xml:"Def10"`
	LA                      string `xml:"LA"`
	GbID                    int64  `xml:"Gb_ID"`
	GeenEmail               int    `xml:"GeenEmail"`
	NieuwsbriefgroepenCount int    `xml:"NieuwsbriefgroepenCount"`
}

type grootboekrekening struct {
	ID           int64  `xml:"ID"`
	Code         string `xml:"Code"`
	Omschrijving string `xml:"Omschrijving"`
	Categorie    string `xml:"Categorie"`
	Groep        string `xml:"Groep"`
}

type mutatie struct {
	MutatieNr        int64          `xml:"MutatieNr"`
	Soort            string         `xml:"Soort"`
	Datum            string         `xml:"Datum"`
	Rekening         string         `xml:"Rekening"`
	RelatieCode      string         `xml:"RelatieCode"`
	Factuurnummer    string         `xml:"Factuurnummer"`
	Boekstuk         string         `xml:"Boekstuk"`
	Omschrijving     string         `xml:"Omschrijving"`
	Betalingstermijn string         `xml:"Betalingstermijn"`
	InExBTW          string         `xml:"InExBTW"`
	Regels           []mutatieRegel `xml:"MutatieRegels>cMutatieListRegel"`
}

type mutatieRegel struct {
	BedragInvoer      string `xml:"BedragInvoer"`
	BedragExclBTW     string `xml:"BedragExclBTW"`
	BedragBTW         string `xml:"BedragBTW"`
	BedragInclBTW     string `xml:"BedragInclBTW"`
	BTWCode           string `xml:"BTWCode"`
	BTWPercentage     string `xml:"BTWPercentage"`
	TegenrekeningCode string `xml:"TegenrekeningCode"`
	KostenplaatsID    int64  `xml:"KostenplaatsID"`
}

// factuur is the remote invoice schema
type factuur struct {
	Factuurnummer                       string         `xml:"Factuurnummer"`
	Relatiecode                         string         `xml:"Relatiecode"`
	Datum                               string         `xml:"Datum"`
	Betalingstermijn                    int            `xml:"Betalingstermijn"`
	Factuursjabloon                     string         `xml:"Factuursjabloon"`
	PerEmailVerzenden                   int            `xml:"PerEmailVerzenden"`
	EmailOnderwerp                      string         `xml:"EmailOnderwerp"`
	EmailBericht                        string         `xml:"EmailBericht"`
	EmailVanAdres                       string         `xml:"EmailVanAdres"`
	EmailVanNaam                        string         `xml:"EmailVanNaam"`
	AutomatischeIncasso                 int            `xml:"AutomatischeIncasso"`
	IncassoIBAN                         string         `xml:"IncassoIBAN"`
	IncassoMachtigingSoort              string         `xml:"IncassoMachtigingSoort"`
	IncassoMachtigingID                 string         `xml:"IncassoMachtigingID"`
	IncassoMachtigingDatumOndertekening string         `xml:"IncassoMachtigingDatumOndertekening"`
	IncassoMachtigingFirst              int            `xml:"IncassoMachtigingFirst"`
	IncassoRekeningNummer               string         `xml:"IncassoRekeningNummer"`
	IncassoTnv                          string         `xml:"IncassoTnv"`
	IncassoPlaats                       string         `xml:"IncassoPlaats"`
	IncassoOmschrijvingRegel1           string         `xml:"IncassoOmschrijvingRegel1"`
	IncassoOmschrijvingRegel2           string         `xml:"IncassoOmschrijvingRegel2"`
	IncassoOmschrijvingRegel3           string         `xml:"IncassoOmschrijvingRegel3"`
	InBoekhoudingPlaatsen               int            `xml:"InBoekhoudingPlaatsen"`
	BoekhoudmutatieOmschrijving         string         `xml:"BoekhoudmutatieOmschrijving"`
	Regels                              []factuurRegel `xml:"Regels>cFactuurRegel"`
}

type factuurRegel struct {
	Aantal            string `xml:"Aantal"`
	Eenheid           string `xml:"Eenheid"`
	Code              string `xml:"Code"`
	Omschrijving      string `xml:"Omschrijving"`
	PrijsPerEenheid   string `xml:"PrijsPerEenheid"`
	BTWCode           string `xml:"BTWCode"`
	TegenrekeningCode string `xml:"TegenrekeningCode"`
	KostenplaatsID    int64  `xml:"KostenplaatsID"`
}

// ── Results ──────────────────────────────────────────────────────────────────

type openSessionResult struct {
	XMLName   xml.Name
	ErrorMsg  errorMsg `xml:"ErrorMsg"`
	SessionID string   `xml:"SessionID"`
}

type getRelatiesResult struct {
	XMLName  xml.Name
	ErrorMsg errorMsg  `xml:"ErrorMsg"`
	Relaties []relatie `xml:"Relaties>cRelatie"`
}

type getGrootboekrekeningenResult struct {
	XMLName    xml.Name
	ErrorMsg   errorMsg            `xml:"ErrorMsg"`
	Rekeningen []grootboekrekening `xml:"Rekeningen>cGrootboekrekening"`
}

type getMutatiesResult struct {
	XMLName  xml.Name
	ErrorMsg errorMsg  `xml:"ErrorMsg"`
	Mutaties []mutatie `xml:"Mutaties>cMutatieList"`
}

type addFactuurResult struct {
	XMLName       xml.Name
	ErrorMsg      errorMsg `xml:"ErrorMsg"`
	Factuurnummer string   `xml:"Factuurnummer"`
}

type addRelatieResult struct {
	XMLName  xml.Name
	ErrorMsg errorMsg `xml:"ErrorMsg"`
	RelID    int64    `xml:"Rel_ID"`
}

type updateRelatieResult struct {
	XMLName  xml.Name
	ErrorMsg errorMsg `xml:"ErrorMsg"`
}

func (r *openSessionResult) resultName() string { return r.XMLName.Local }
func (r *openSessionResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *getRelatiesResult) resultName() string { return r.XMLName.Local }
func (r *getRelatiesResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *getGrootboekrekeningenResult) resultName() string { return r.XMLName.Local }
func (r *getGrootboekrekeningenResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *getMutatiesResult) resultName() string { return r.XMLName.Local }
func (r *getMutatiesResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *addFactuurResult) resultName() string { return r.XMLName.Local }
func (r *addFactuurResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *addRelatieResult) resultName() string { return r.XMLName.Local }
func (r *addRelatieResult) errorDescriptor() errorMsg { return r.ErrorMsg }
func (r *updateRelatieResult) resultName() string { return r.XMLName.Local }
func (r *updateRelatieResult) errorDescriptor() errorMsg { return r.ErrorMsg }
