package model

// User-facing messages. Clients display these verbatim.
const (
	MsgNameRequired           = "Vui lòng nhập tên thực phẩm"
	MsgNameTooLong            = "Tên thực phẩm quá dài"
	MsgQuantityMin            = "Số lượng phải lớn hơn 0"
	MsgUnitRequired           = "Vui lòng chọn đơn vị tính"
	MsgCategoryRequired       = "Vui lòng chọn danh mục"
	MsgExpirationInvalid      = "Định dạng ngày không hợp lệ"
	MsgExpirationPast         = "Ngày hết hạn không thể là quá khứ"
	MsgImageInvalid           = "Chỉ chấp nhận định dạng ảnh: JPG, PNG, WebP"
	MsgImageTooLarge          = "Kích thước ảnh tối đa: 5MB"
	MsgCreated                = "Đã thêm thực phẩm thành công!"
	MsgUpdated                = "Đã cập nhật thực phẩm thành công!"
	MsgDeleted                = "Đã xóa thực phẩm thành công!"
	MsgDeleteFailed           = "Không thể xóa thực phẩm. Vui lòng thử lại."
	MsgDeleteConfirmTemplate  = "Bạn có chắc chắn muốn xóa \"%s\"?"
	MsgNotFound               = "Không tìm thấy thực phẩm."
	MsgGeneric                = "Có lỗi xảy ra. Vui lòng thử lại."
	MsgEmptyInventoryTitle    = "Chưa có thực phẩm trong kho"
	MsgEmptyInventoryDescribe = "Bắt đầu thêm thực phẩm để quản lý kho của bạn"
)
