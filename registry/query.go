package registry

// recordQuery asks for the two attestation kinds in a single request.
// Both filters are exact structural matches: DnsRecord keyed by name,
// ApplicationDeploymentRecord keyed by url. The reconciler only ever
// looks at the length of each list, but the ValueParts fragment keeps
// the document interchangeable with other registry tooling.
const recordQuery = `
query($dnsName: String!, $appUrl: String!) {
  dnsRecords: queryRecords(attributes: [{key: "type", value: {string: "DnsRecord"}}, {key: "name", value: {string: $dnsName}}]) {
    id
    attributes {
      key
      value {
        ...ValueParts
      }
    }
  }
  appDeploymentRecords: queryRecords(attributes: [{key: "type", value: {string: "ApplicationDeploymentRecord"}}, {key: "url", value: {string: $appUrl}}]) {
    id
    attributes {
      key
      value {
        ...ValueParts
      }
    }
  }
}

fragment ValueParts on Value {
  ... on BooleanValue {
    bool: value
  }
  ... on IntValue {
    int: value
  }
  ... on FloatValue {
    float: value
  }
  ... on StringValue {
    string: value
  }
  ... on BytesValue {
    bytes: value
  }
  ... on LinkValue {
    link: value
  }
}
`

type queryRequest struct {
	Query     string         `json:"query"`
	Variables queryVariables `json:"variables"`
}

type queryVariables struct {
	DnsName string `json:"dnsName"`
	AppUrl  string `json:"appUrl"`
}

type queryResponse struct {
	Data   *queryData   `json:"data"`
	Errors []queryError `json:"errors"`
}

type queryData struct {
	DnsRecords           []record `json:"dnsRecords"`
	AppDeploymentRecords []record `json:"appDeploymentRecords"`
}

type queryError struct {
	Message string `json:"message"`
}

type record struct {
	Id         string      `json:"id"`
	Attributes []attribute `json:"attributes"`
}

type attribute struct {
	Key   string                 `json:"key"`
	Value map[string]interface{} `json:"value"`
}
