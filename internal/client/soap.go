package client

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

const (
	soapEnvelopeNS = "http://schemas.xmlsoap.org/soap/envelope/"
	eboekhoudenNS  = "http://www.e-boekhouden.nl/soap"
)

// errMalformedResponse is returned when a response cannot be decoded
var errMalformedResponse = errors.New("malformed SOAP response")

// errMissingResult is returned when a response carries no <Operation>Result element
var errMissingResult = fmt.Errorf("%w: no result element", errMalformedResponse)

type requestEnvelope struct {
	XMLName xml.Name    `xml:"soap:Envelope"`
	SoapNS  string      `xml:"xmlns:soap,attr"`
	Body    requestBody `xml:"soap:Body"`
}

type requestBody struct {
	Content any
}

type responseEnvelope struct {
	XMLName xml.Name `xml:"Envelope"`
	Body    struct {
		Fault *soapFault `xml:"Fault"`
		Inner []byte     `xml:",innerxml"`
	} `xml:"Body"`
}

type soapFault struct {
	Code   string `xml:"faultcode"`
	String string `xml:"faultstring"`
}

func (f *soapFault) Error() string {
	return fmt.Sprintf("soap fault %s: %s", f.Code, f.String)
}

// soapResponse holds the <Operation>Response element; its single child is the result.
type soapResponse[R any] struct {
	Result R `xml:",any"`
}

// soapTransport posts SOAP 1.1 envelopes to a fixed endpoint
type soapTransport struct {
	endpoint   string
	httpClient *http.Client
}

// newSOAPTransport derives the service endpoint from a WSDL location
func newSOAPTransport(wsdl string, httpClient *http.Client) (*soapTransport, error) {
	u, err := url.Parse(strings.TrimSpace(wsdl))
	if err != nil {
		return nil, fmt.Errorf("invalid service description location: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("invalid service description location %q", wsdl)
	}

	q := u.Query()
	for key := range q {
		if strings.EqualFold(key, "wsdl") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	u.Fragment = ""

	return &soapTransport{endpoint: u.String(), httpClient: httpClient}, nil
}

// call sends body as the named operation and decodes the operation result into out
func (t *soapTransport) call(ctx context.Context, operation string, body any, out any) error {
	payload, err := xml.Marshal(requestEnvelope{
		SoapNS: soapEnvelopeNS,
		Body:   requestBody{Content: body},
	})
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", operation, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint,
		bytes.NewReader(append([]byte(xml.Header), payload...)))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "text/xml; charset=utf-8")
	req.Header.Set("SOAPAction", fmt.Sprintf("%q", eboekhoudenNS+"/"+operation))

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", t.endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	var env responseEnvelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		if resp.StatusCode >= 400 {
			return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
		}
		return fmt.Errorf("%w: %v", errMalformedResponse, err)
	}
	if env.Body.Fault != nil {
		return env.Body.Fault
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected HTTP status %d", resp.StatusCode)
	}

	if len(bytes.TrimSpace(env.Body.Inner)) == 0 {
		return fmt.Errorf("%w: %s", errMissingResult, operation)
	}
	if err := xml.Unmarshal(env.Body.Inner, out); err != nil {
		return fmt.Errorf("%w: %s: %v", errMalformedResponse, operation, err)
	}
	return nil
}
