package pubmed

// esearchResponse is the JSON body of esearch.fcgi with retmode=json
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		RetMax string   `json:"retmax"`
		IDList []string `json:"idlist"`
		Error  string   `json:"ERROR"`
	} `json:"esearchresult"`
	Error string `json:"error"`
}
