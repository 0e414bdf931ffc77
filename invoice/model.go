package invoice

import (
	"errors"
	"fmt"

	"github.com/ByLCY/facture/layout"
)

var (
	// ErrMissingField 表示必填字段为空。
	ErrMissingField = errors.New("缺少必填字段")
	// ErrInvalidImage 表示图片引用无效（未设置来源或同时设置了多个来源）。
	ErrInvalidImage = errors.New("图片引用无效")
)

// ClientInfo 描述客户信息，仅用于展示。
type ClientInfo struct {
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
	TVA     string `json:"tva,omitempty"`
	NIF     string `json:"nif,omitempty"`
	NIS     string `json:"nis,omitempty"`
	RC      string `json:"rc,omitempty"`
}

// Validate 检查必填字段。
func (c ClientInfo) Validate() error {
	if c.Name == "" {
		return missing("client.name")
	}
	return nil
}

// Item 是一行商品，所有值都是已经格式化好的字符串。
type Item struct {
	Name      string `json:"name"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unitPrice"`
	Total     string `json:"total"`
}

// RowData 返回表格中该行的四个单元格。
func (i Item) RowData() [4]string {
	return [4]string{i.Name, i.Quantity, i.UnitPrice, i.Total}
}

// InvoiceInfo 保存发票编号、明细与预先算好的合计。
type InvoiceInfo struct {
	Number  string   `json:"number"`
	Date    string   `json:"date"`
	Items   []Item   `json:"items"`
	Columns []string `json:"columns"`

	TotalHT  string `json:"totalHT"`
	TotalTVA string `json:"totalTVA"`
	TotalTTC string `json:"totalTTC"`
	// TaxRate 是税率标签（例如 "20%"），不会根据合计推算。
	TaxRate string `json:"taxRate"`

	// RowColors 为空时使用默认的深灰/浅灰交替。
	RowColors       []layout.Color `json:"rowColors,omitempty"`
	DeliveryCompany string         `json:"deliveryCompany,omitempty"`
	DeliveryCost    string         `json:"deliveryCost,omitempty"`
}

// Validate 检查必填字段与表头数量。
func (i InvoiceInfo) Validate() error {
	var errs []error
	if i.TaxRate == "" {
		errs = append(errs, missing("invoice.taxRate"))
	}
	if len(i.Columns) != tableColumns {
		errs = append(errs, fmt.Errorf("invoice.columns: 需要 %d 个表头，实际 %d 个", tableColumns, len(i.Columns)))
	}
	if n := len(i.RowColors); n != 0 && n != 2 {
		errs = append(errs, fmt.Errorf("invoice.rowColors: 需要 2 种颜色，实际 %d 种", n))
	}
	return errors.Join(errs...)
}

// BankAccount 目前只渲染 RIB。
type BankAccount struct {
	RIB         string `json:"rib"`
	BankName    string `json:"bankName,omitempty"`
	BankAddress string `json:"bankAddress,omitempty"`
}

// CompanyInfo 描述开票公司。每个非空的可选字段都会在页脚增加一行。
type CompanyInfo struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Email   string `json:"email,omitempty"`

	Siret string `json:"siret,omitempty"`
	TVA   string `json:"tva,omitempty"`
	NIF   string `json:"nif,omitempty"`
	NIS   string `json:"nis,omitempty"`
	RC    string `json:"rc,omitempty"`
	RCS   string `json:"rcs,omitempty"`

	Logo        *ImageRef    `json:"logo,omitempty"`
	QRCode      *ImageRef    `json:"qrCode,omitempty"`
	BankAccount *BankAccount `json:"bankAccount,omitempty"`
}

// Validate 检查必填字段与图片引用。
func (c CompanyInfo) Validate() error {
	var errs []error
	if c.Name == "" {
		errs = append(errs, missing("company.name"))
	}
	if c.BankAccount != nil && c.BankAccount.RIB == "" {
		errs = append(errs, missing("company.bankAccount.rib"))
	}
	if err := c.Logo.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("company.logo: %w", err))
	}
	if err := c.QRCode.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("company.qrCode: %w", err))
	}
	return errors.Join(errs...)
}

// ImageRef 引用一张图片：文件路径、内存数据或需要编码为二维码的内容，三者只能设置其一。
type ImageRef struct {
	Path string `json:"path,omitempty"`
	Data []byte `json:"data,omitempty"`
	QR   string `json:"qr,omitempty"`
}

// Validate 检查引用只设置了一个来源。nil 表示未配置图片，是合法的。
func (r *ImageRef) Validate() error {
	if r == nil {
		return nil
	}
	set := 0
	for _, ok := range []bool{r.Path != "", len(r.Data) > 0, r.QR != ""} {
		if ok {
			set++
		}
	}
	switch set {
	case 0:
		return fmt.Errorf("%w: 未设置 path/data/qr", ErrInvalidImage)
	case 1:
		return nil
	default:
		return fmt.Errorf("%w: path/data/qr 只能设置一个", ErrInvalidImage)
	}
}

// source 将引用转换为渲染器可读取的图片来源；二维码内容在此编码为 PNG。
func (r *ImageRef) source(qrPixels int) (layout.ImageSource, error) {
	if r == nil {
		return layout.ImageSource{}, nil
	}
	if err := r.Validate(); err != nil {
		return layout.ImageSource{}, err
	}
	switch {
	case r.QR != "":
		data, err := encodeQR(r.QR, qrPixels)
		if err != nil {
			return layout.ImageSource{}, err
		}
		return layout.ImageSource{Data: data}, nil
	case len(r.Data) > 0:
		return layout.ImageSource{Data: r.Data}, nil
	default:
		return layout.ImageSource{Path: r.Path}, nil
	}
}

// Payload 是一次渲染所需的全部输入，也是 HTTP 接口与命令行的 JSON 格式。
type Payload struct {
	Client    ClientInfo  `json:"client"`
	Invoice   InvoiceInfo `json:"invoice"`
	Company   CompanyInfo `json:"company"`
	Title     string      `json:"title,omitempty"`
	Watermark *ImageRef   `json:"watermark,omitempty"`
}

// Validate 汇总所有实体的校验错误。
func (p Payload) Validate() error {
	var errs []error
	errs = append(errs, p.Client.Validate(), p.Invoice.Validate(), p.Company.Validate())
	if err := p.Watermark.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("watermark: %w", err))
	}
	return errors.Join(errs...)
}

func missing(field string) error {
	return fmt.Errorf("%w: %s", ErrMissingField, field)
}
